// Package config provides configuration for unitpool pools and the CLI.
//
// PoolConfig describes one pool: unit size, batch count, free-size
// threshold, unit cap, allocation strategy, ledger storage mode, allocator
// and shrink idle window. Config wraps it together with logging and metrics
// sections for the command line tool.
//
// # Loading
//
// Two loaders are provided:
//
//	// Plain YAML with ${VAR_NAME} substitution
//	var cfg config.Config
//	if err := config.Load("pool.yaml", &cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Viper: YAML/JSON/TOML plus UNITPOOL_* environment overrides
//	cfg, err := config.LoadConfig("pool.yaml")
//
// With the viper loader, UNITPOOL_POOL_BATCH_COUNT=64 overrides
// pool.batch_count from the file.
//
// # Example file
//
//	pool:
//	  name: requests
//	  unit_size: 4096
//	  batch_count: 64
//	  free_size_threshold: 65536
//	  strategy: slab
//	  ledger_mode: intrusive
//	  allocator: mmap
//	  idle_window: 5m
//	logging:
//	  level: info
//	  encoding: json
//	metrics:
//	  enabled: true
//	  addr: ":9464"
//
// Callbacks (unit initializer, destructor, size query) cannot be expressed in
// a file; they are passed as pool options.
package config
