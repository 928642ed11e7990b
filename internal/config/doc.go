// Package config loads rx.yaml, the configuration of rx applications and
// the rx CLI.
//
// # Configuration File Structure
//
//	name: demo
//	debug: false
//	server:
//	  addr: ":3000"
//	  devtools: true
//	log:
//	  level: info
//	  format: auto
//	runtime:
//	  budget: 100
//	  placeholder:
//	    text: "Loading…"
//	    class: rx-placeholder
//	metrics:
//	  enabled: true
//	  namespace: rx
//	persist:
//	  backend: bolt
//	  name: default
//	  autosave: 2s
//	  bolt:
//	    path: rx.db
//	  s3:
//	    bucket: my-bucket
//	    prefix: snapshots/
//	    region: us-east-1
//	initialState:
//	  count: 0
//
// RX_ADDR and RX_DEBUG override server.addr and debug.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Addr:", cfg.Server.Addr)
package config
