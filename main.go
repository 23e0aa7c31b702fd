package main

import (
	"github.com/ripple-mq/ripple-chat/cmd"
	"github.com/ripple-mq/ripple-chat/pkg/utils/pen"
)

func main() {
	pen.InitLog("info")
	cmd.Execute()
}
