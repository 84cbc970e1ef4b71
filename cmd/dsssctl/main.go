package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dougsko/dsss/pkg/client"
)

var (
	socketPath = flag.String("socket", "/tmp/dsssd.sock", "Unix socket path")
	command    = flag.String("cmd", "", "Command to send (e.g., 'STATUS', 'MESSAGE:101')")
)

func main() {
	flag.Parse()

	if *socketPath == "" {
		fmt.Fprintf(os.Stderr, "Socket path is required\n")
		os.Exit(1)
	}

	if *command == "" {
		if len(flag.Args()) > 0 {
			*command = strings.Join(flag.Args(), " ")
		} else {
			showHelp()
			return
		}
	}

	c := client.NewSocketClient(*socketPath)

	response, err := c.SendCommand(*command)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", response.String())
	if !response.Success {
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Println("dsssctl - DSSS Transmitter Daemon Control Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options] <command>\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -socket <path>    Unix socket path (default: /tmp/dsssd.sock)")
	fmt.Println("  -cmd <command>    Command to send")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  STATUS                    Get transmitter status")
	fmt.Println("  CODE:<bits>               Set the spreading code")
	fmt.Println("  MESSAGE:<bits>            Set the message")
	fmt.Println("  WALSH:<order>:<index>     Use a Walsh-Hadamard row as the code")
	fmt.Println("  PACKET                    Show code, complement and packet")
	fmt.Println("  TRANSMIT                  Synthesize the waveform (summary)")
	fmt.Println("  TRANSMIT:full             Synthesize and return every sample")
	fmt.Println("  SPECTRUM                  Spectrum of the last transmission")
	fmt.Println("  PING                      Test connection")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  %s CODE:1011\n", os.Args[0])
	fmt.Printf("  %s MESSAGE:101\n", os.Args[0])
	fmt.Printf("  %s WALSH:8:3\n", os.Args[0])
	fmt.Printf("  echo 'STATUS' | nc -U /tmp/dsssd.sock\n")
}
