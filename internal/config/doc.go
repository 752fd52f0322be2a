// Package config provides configuration parsing for the cohis server.
//
// Configuration lives in cohis.json or cohis.yaml next to the binary's
// working directory. Both formats share one schema; the file extension picks
// the decoder. Fields left out of the file keep their defaults.
//
// # Configuration File Structure
//
//	server:
//	  host: 0.0.0.0
//	  port: 8080
//	  shutdownTimeout: 15s
//	  allowedOrigins: ["https://dashboard.example.com"]
//	session:
//	  eventsPerSecond: 20
//	  burst: 40
//	overlay:
//	  tooltipSide: top
//	  popconfirmSide: left
//	  drawerExtent: 300
//	metrics:
//	  enabled: true
//	storage:
//	  driver: s3
//	  bucket: cohis-uploads
//	  endpoint: http://minio:9000
//	  usePathStyle: true
//	log:
//	  level: debug
//	  format: json
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Listening on", cfg.Addr())
package config
