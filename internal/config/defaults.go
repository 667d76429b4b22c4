package config

import "github.com/spf13/viper"

// setDefaults sets the default value of every configuration key. Every key
// needs a default so environment-only overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("network_name", "main")

	v.SetDefault("node.data_dir", "/var/lib/swapd")

	v.SetDefault("store.backend", "pebble")
	v.SetDefault("store.path", "")
	v.SetDefault("store.cache_size", 4096)
	v.SetDefault("store.compression", "none")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.max_open_conns", 1)
	v.SetDefault("history.max_idle_conns", 1)

	v.SetDefault("api.jsonrpc.enabled", true)
	v.SetDefault("api.jsonrpc.address", "127.0.0.1:5005")

	v.SetDefault("api.feed.enabled", true)
	v.SetDefault("api.feed.address", "127.0.0.1:6006")

	v.SetDefault("api.grpc.enabled", false)
	v.SetDefault("api.grpc.address", "127.0.0.1:50051")
	v.SetDefault("api.grpc.max_recv_msg_size", 4*1024*1024)
	v.SetDefault("api.grpc.max_send_msg_size", 4*1024*1024)
}
