package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// LLM
	viper.SetDefault("llm.endpoint", "https://api.openai.com")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.api_key_ssm_parameter", "")
	viper.SetDefault("llm.request_timeout", 90*time.Second)
	viper.SetDefault("llm.instruction", "")

	// State store
	viper.SetDefault("store.driver", "file")
	viper.SetDefault("store.file.dir", "~/.rentscreen/state")
	viper.SetDefault("store.mongo.uri", "mongodb://127.0.0.1:27017")
	viper.SetDefault("store.mongo.database", "rentscreen")
	viper.SetDefault("store.mongo.collection", "rentscreen_kv")
	viper.SetDefault("store.dynamo.table", "rentscreen")

	// Scan loop
	viper.SetDefault("scan.enabled", true)
	viper.SetDefault("scan.settle_delay", 2*time.Second)
	viper.SetDefault("scan.idle_interval", 10*time.Second)
	viper.SetDefault("scan.replied_reset_interval", 10*time.Minute)

	// Daemon server
	viper.SetDefault("server.bind", "127.0.0.1")
	viper.SetDefault("server.port", 8922)
	viper.SetDefault("server.url", "http://127.0.0.1:8922")
	viper.SetDefault("server.auth_token", "")
	viper.SetDefault("server.auth_token_ssm_parameter", "")

	// Driver bridge
	viper.SetDefault("bridge.call_timeout", 30*time.Second)

	// Outcome events
	viper.SetDefault("kafka.brokers", []string{})
	viper.SetDefault("kafka.topic", "rentscreen.outcomes")
}
