package config

import "os"

func IsDebug() bool {
	return os.Getenv("CODE_DEBUG") == "1" || os.Getenv("CODE_DEBUG") == "true"
}
