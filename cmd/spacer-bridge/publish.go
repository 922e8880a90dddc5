package main

import (
	"log"
	"time"

	"github.com/itohio/spacer/pkg/output"
	"github.com/itohio/spacer/pkg/sample"
)

// publish forwards samples to every output until samples closes. With a
// positive interval only the latest sample of each interval is published.
// Output errors are logged and do not stop the bridge.
func publish(samples <-chan sample.Sample, outputs []output.Output, interval time.Duration) {
	send := func(s sample.Sample) {
		for _, o := range outputs {
			if err := o.Publish(s); err != nil {
				log.Printf("Publish failed: %v", err)
			}
		}
	}

	if interval <= 0 {
		for s := range samples {
			send(s)
		}
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		latest  sample.Sample
		pending bool
	)
	for {
		select {
		case s, ok := <-samples:
			if !ok {
				if pending {
					send(latest)
				}
				return
			}
			latest, pending = s, true
		case <-ticker.C:
			if pending {
				send(latest)
				pending = false
			}
		}
	}
}
