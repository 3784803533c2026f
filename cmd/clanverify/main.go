package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dalemusser/waffle/app"
	"github.com/devweekends/clanverify/internal/app/bootstrap"
	"github.com/devweekends/clanverify/internal/app/features/adminauth"
)

func main() {
	// `clanverify hash-key` prints the admin_api_key_hash for a key read
	// from the argument list or stdin.
	if len(os.Args) > 1 && os.Args[1] == "hash-key" {
		if err := hashKey(os.Args[2:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}

func hashKey(args []string) error {
	key := ""
	if len(args) > 0 {
		key = args[0]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read key: %w", err)
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("usage: clanverify hash-key <key>")
	}
	hash, err := adminauth.HashKey(key)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
