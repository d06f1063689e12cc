// Package config loads fiberctl configuration.
//
// The configuration lives in fiberctl.json, fiberctl.yaml or fiberctl.yml
// next to the scenario being run. Every field is optional; missing values
// fall back to the reconciler's defaults.
//
// # Configuration File Structure
//
//	scheduler:
//	  frameInterval: 5ms
//	  timeouts:
//	    userBlocking: 250ms
//	    normal: 5s
//	    low: 10s
//	lanes:
//	  syncExpiry: 250ms
//	  defaultExpiry: 5s
//	log:
//	  level: debug
//	  format: json
//	metrics:
//	  namespace: reconciler
//	devtools:
//	  addr: 127.0.0.1:7070
//	snapshot:
//	  dir: ./snapshots
//	  s3Bucket: ui-commits
//	  s3Prefix: commits
//	  s3Region: eu-west-1
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sched := scheduler.New(cfg.SchedulerOptions()...)
package config
