package main

import (
	"github.com/mohamadaskravi2050-crypto/Muzic56/cmd"
)

func main() {
	cmd.Execute()
}
