package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run dials the chat server, forwards stdin line by line and prints
// everything the server sends until one side hangs up.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	config, err := LoadConfig()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Establish connection to the chat server.
	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", address, err)
	}
	defer func() {
		log.Debug("Closing connection...")
		_ = conn.Close()
	}()

	input := bufio.NewScanner(os.Stdin)
	name := strings.TrimSpace(config.Name)
	if name == "" {
		fmt.Print("Username: ")
		if !input.Scan() {
			return exitOK, nil
		}
		name = strings.TrimSpace(input.Text())
	}
	if _, err := fmt.Fprintf(conn, "%s\n", name); err != nil {
		return exitRuntime, fmt.Errorf("handshake failed: %w", err)
	}

	// 4. Message reception loop, ends when the server closes the connection.
	received := make(chan error, 1)
	go func() {
		received <- printLines(conn, os.Stdout, config.Colours)
	}()

	// 5. Forward stdin until /quit, EOF or a signal.
	sent := make(chan error, 1)
	go func() {
		sent <- forwardLines(input, conn)
	}()

	select {
	case <-ctx.Done():
		log.Debug("Stopping client...")
		_, _ = fmt.Fprint(conn, "/quit\n")
		return exitOK, nil
	case err := <-received:
		if err != nil {
			return exitRuntime, fmt.Errorf("connection error: %w", err)
		}
		return exitOK, nil
	case err := <-sent:
		if err != nil {
			return exitRuntime, fmt.Errorf("send error: %w", err)
		}
		// Wait for the goodbye line before leaving
		<-received
		return exitOK, nil
	}
}

func forwardLines(input *bufio.Scanner, w io.Writer) error {
	for input.Scan() {
		line := input.Text()
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(line), "/quit") {
			return nil
		}
	}
	if err := input.Err(); err != nil {
		return err
	}
	// Stdin closed, leave politely
	_, err := fmt.Fprint(w, "/quit\n")
	return err
}

func printLines(r io.Reader, w io.Writer, colours bool) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fmt.Fprintln(w, render(scanner.Text(), colours))
	}
	return scanner.Err()
}

// render highlights server notices and chat lines.
func render(line string, colours bool) string {
	if !colours {
		return line
	}
	switch {
	case strings.HasPrefix(line, "***"):
		return color.New(color.FgYellow).Render(line)
	case strings.HasPrefix(line, "["):
		end := strings.Index(line, "] ")
		sep := strings.Index(line, ": ")
		if end < 0 || sep < end {
			return line
		}
		timestamp := color.New(color.FgGray).Render(line[:end+1])
		sender := color.New(color.FgCyan, color.OpBold).Render(line[end+2 : sep])
		return timestamp + " " + sender + line[sep:]
	case strings.HasPrefix(line, "Unknown command"), strings.HasPrefix(line, "Usage:"):
		return color.New(color.FgRed).Render(line)
	default:
		return color.New(color.FgGreen).Render(line)
	}
}
