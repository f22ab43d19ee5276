package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/NicolasHaas/roomchat/pkg/client"
	"github.com/NicolasHaas/roomchat/pkg/logging"
	"github.com/NicolasHaas/roomchat/pkg/model"
	"github.com/NicolasHaas/roomchat/pkg/protocol"
	"github.com/NicolasHaas/roomchat/pkg/version"
)

func main() {
	addr := flag.String("addr", "localhost:10000", "Server address")
	bookmark := flag.String("bookmark", "", "Connect using a saved bookmark")
	save := flag.String("save", "", "Save this connection as a bookmark with the given name")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("roomchat-client", version.Full())
		return
	}

	// Default to "warn" so logs stay out of the chat; override with
	// ROOMCHAT_LOG_LEVEL (debug, info, warn, error).
	level := "warn"
	if v := os.Getenv("ROOMCHAT_LOG_LEVEL"); v != "" {
		level = v
	}
	format := "text"
	if v := os.Getenv("ROOMCHAT_LOG_FORMAT"); v != "" {
		format = v
	}
	_ = logging.Setup(logging.Options{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})

	bookmarks := client.NewBookmarkStore(client.DefaultBookmarkPath())
	if err := bookmarks.Load(); err != nil {
		slog.Warn("load bookmarks", "err", err)
	}

	target := client.Bookmark{Addr: *addr}
	if *bookmark != "" {
		b, ok := bookmarks.Find(*bookmark)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown bookmark %q\n", *bookmark)
			os.Exit(1)
		}
		target = b
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	c, err := client.Dial(ctx, target.Addr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}

	in := bufio.NewScanner(os.Stdin)
	username, res, err := authenticate(c, in, target.Username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		_ = c.Close()
		os.Exit(1)
	}
	fmt.Printf("Welcome, %s!\n", res.Nickname)

	if *save != "" || *bookmark != "" {
		name := *save
		if name == "" {
			name = *bookmark
		}
		bookmarks.Add(client.Bookmark{Name: name, Addr: target.Addr, Username: username})
		bookmarks.Touch(target.Addr, username, time.Now().Unix())
		if err := bookmarks.Save(); err != nil {
			slog.Warn("save bookmarks", "err", err)
		}
	}

	e := client.NewEngine(c, res)
	e.OnMessage = func(msg protocol.ServerMessage) {
		fmt.Println(client.Render(msg))
	}
	e.Start()

	go func() {
		<-e.Done()
		if err := e.Err(); err != nil {
			fmt.Fprintf(os.Stderr, "connection lost: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Disconnected.")
		os.Exit(0)
	}()

	for in.Scan() {
		line := strings.TrimRight(in.Text(), "\r")
		if line == "" {
			continue
		}
		if line == "/help" {
			fmt.Println(client.LocalHelp(e.IsAdmin()))
			continue
		}
		if err := e.Send(line); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			break
		}
		if line == "/exit" {
			break
		}
	}
	_ = e.Close()
	<-e.Done()
}

// authenticate prompts until LOGIN or SIGNUP succeeds. It returns the
// username used.
func authenticate(c *client.Client, in *bufio.Scanner, username string) (string, client.AuthResult, error) {
	prompt := func(label string) (string, error) {
		fmt.Print(label)
		if !in.Scan() {
			return "", fmt.Errorf("input closed")
		}
		return strings.TrimSpace(in.Text()), nil
	}

	for {
		choice, err := prompt("(l)ogin or (s)ignup? ")
		if err != nil {
			return "", client.AuthResult{}, err
		}
		user := username
		if user == "" {
			if user, err = prompt("Username: "); err != nil {
				return "", client.AuthResult{}, err
			}
		}
		pass, err := prompt("Password: ")
		if err != nil {
			return "", client.AuthResult{}, err
		}

		var res client.AuthResult
		switch strings.ToLower(choice) {
		case "s", "signup":
			nick, err := prompt("Nickname: ")
			if err != nil {
				return "", client.AuthResult{}, err
			}
			if nick == "" {
				nick = model.NicknamePlaceholder
			}
			res, err = c.Signup(user, pass, nick)
			if err == nil {
				return user, res, nil
			}
			if !client.IsAuthError(err) {
				return "", client.AuthResult{}, err
			}
			fmt.Println(err)
		default:
			res, err = c.Login(user, pass)
			if err == nil {
				return user, res, nil
			}
			if !client.IsAuthError(err) {
				return "", client.AuthResult{}, err
			}
			fmt.Println(err)
		}
	}
}
