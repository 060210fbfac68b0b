// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// signalContext cancels on the first SIGINT or SIGTERM so collectors stop and
// no partial dataset is written. A second SIGINT quits immediately.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		var sig os.Signal
		select {
		case sig = <-sigChan:
		case <-ctx.Done():
			signal.Stop(sigChan)
			return
		}

		if sig == syscall.SIGTERM {
			fmt.Fprintln(os.Stderr, "\nReceived termination signal (SIGTERM), shutting down...")
		} else {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down... (press Ctrl-C again to force quit)")
		}
		cancel()

		if sig == syscall.SIGTERM {
			return
		}
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nForce quitting...")
		os.Exit(130)
	}()

	return ctx, cancel
}
