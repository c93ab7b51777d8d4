package flagx

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// lookupEnv is a seam for tests.
var lookupEnv = os.LookupEnv

// EnvString sets *dst to the value of the named variable when it is set.
func EnvString(name string, dst *string) {
	if v, ok := lookupEnv(name); ok {
		*dst = v
	}
}

// EnvInt64 parses the named variable as a base-10 integer into *dst.
func EnvInt64(name string, dst *int64) error {
	v, ok := lookupEnv(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// EnvDuration parses the named variable with time.ParseDuration into *dst.
func EnvDuration(name string, dst *time.Duration) error {
	v, ok := lookupEnv(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
