package output

import "github.com/itohio/spacer/pkg/sample"

// Output receives processed samples.
type Output interface {
	Publish(sample.Sample) error
	Close() error
}

// helper constructors are in subpackages
