// Package config provides configuration parsing for weft projects.
//
// The configuration is stored in weft.json at the project root. A
// missing file is not an error; every field has a working default.
//
// # Configuration File Structure
//
//	{
//	  "name": "myapp",
//	  "server": {
//	    "addr": ":8480",
//	    "readTimeoutSec": 60,
//	    "allowedOrigins": ["https://app.example.com"]
//	  },
//	  "runtime": {
//	    "flushCap": 32
//	  },
//	  "telemetry": {
//	    "metrics": true,
//	    "tracing": false
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Addr:", cfg.Server.Addr)
package config
