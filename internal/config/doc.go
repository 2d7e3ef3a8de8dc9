// Package config provides configuration parsing for the statetree tools.
//
// The configuration is stored in statetree.json. Every field is optional;
// missing fields take their defaults.
//
// # Configuration File Structure
//
//	{
//	  "log": {
//	    "level": "debug",
//	    "format": "text"
//	  },
//	  "inspect": {
//	    "address": "localhost:7070",
//	    "streamBuffer": 64
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "statetree"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "statetree"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Resolve(flagPath)
//	if err != nil {
//	    return err
//	}
//	if err := cfg.ApplyOverrides("log.level=debug"); err != nil {
//	    return err
//	}
//	logger := cfg.Logger(os.Stderr)
package config
