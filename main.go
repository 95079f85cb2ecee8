package main

import (
	"github.com/mj1618/wm-win-tool/cmd"

	_ "github.com/mj1618/wm-win-tool/internal/platform/ewmh"
	_ "github.com/mj1618/wm-win-tool/internal/platform/wmctrl"
)

func main() {
	cmd.Execute()
}
