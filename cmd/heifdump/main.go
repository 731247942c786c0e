// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"runtime"

	"github.com/rs/zerolog/log"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Error().Str("stack", string(buf)).Any("error", err).Msg("panic recover")
			os.Exit(1)
		}
	}()
	os.Exit(Execute())
}
