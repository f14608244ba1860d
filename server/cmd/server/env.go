package main

import (
	"os"
	"strconv"
)

func GetEnvDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func envUint(key string, defaultValue uint) uint {
	v, err := strconv.ParseUint(os.Getenv(key), 10, 0)
	if err != nil {
		return defaultValue
	}
	return uint(v)
}
