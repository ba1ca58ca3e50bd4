package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/hongjun500/chat-relay/internal/chat"
)

func main() {
	name := flag.String("name", "", "username; prompted when empty")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: client [-name user] [host] [port]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	host, port := "127.0.0.1", 55555
	if flag.NArg() >= 1 {
		host = flag.Arg(0)
	}
	if flag.NArg() >= 2 {
		p, err := strconv.Atoi(flag.Arg(1))
		if err != nil || p < 1 || p > 65535 {
			fmt.Fprintf(os.Stderr, "invalid port %q\n", flag.Arg(1))
			os.Exit(2)
		}
		port = p
	}
	os.Exit(run(net.JoinHostPort(host, strconv.Itoa(port)), *name))
}

func run(addr, name string) int {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", addr, err)
		return 1
	}
	defer conn.Close()

	in := bufio.NewScanner(conn)
	stdin := bufio.NewScanner(os.Stdin)

	if !in.Scan() {
		fmt.Fprintln(os.Stderr, "server closed the connection")
		return 1
	}
	fmt.Println(render(in.Text(), ""))

	if name == "" {
		fmt.Print("> ")
		if !stdin.Scan() {
			return 0
		}
		name = stdin.Text()
	}
	name = strings.TrimSpace(name)
	if _, err := fmt.Fprintf(conn, "%s\n", name); err != nil {
		fmt.Fprintf(os.Stderr, "send: %v\n", err)
		return 1
	}
	if !in.Scan() {
		fmt.Fprintln(os.Stderr, "server closed the connection")
		return 1
	}
	reply := in.Text()
	fmt.Println(render(reply, ""))
	if strings.HasPrefix(reply, chat.ErrorMarker) {
		return 1
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for in.Scan() {
			fmt.Println(render(in.Text(), name))
		}
	}()

	go func() {
		for stdin.Scan() {
			line := stdin.Text()
			if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
				return
			}
			if strings.TrimSpace(line) == chat.QuitToken {
				return
			}
		}
		// stdin closed: leave the same way /quit does
		_, _ = fmt.Fprintf(conn, "%s\n", chat.QuitToken)
	}()

	<-done
	return 0
}
