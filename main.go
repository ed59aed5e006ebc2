// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/stockroom/stockroom/cmd/stockroom"

func main() {
	cmd.Execute()
}
