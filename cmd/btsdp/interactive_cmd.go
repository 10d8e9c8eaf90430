package main

import (
	"time"

	"github.com/abiosoft/ishell"
	"github.com/spf13/cobra"

	"github.com/steveford-obs/btsdp/internal/cache"
)

// shellState holds the one address an interactive session is currently
// working against, grounded on interactive.go's module-level
// ObserversList: small, session-scoped, mutated only from shell.Cmd.Func
// callbacks.
type shellState struct {
	address string
}

func startInteractive(cmd *cobra.Command, args []string) {
	shell := ishell.New()
	shell.SetPrompt("btsdp> ")

	state := &shellState{}

	shell.Println()
	shell.Println(" btsdp interactive mode")
	shell.Println("	Default UUID: 110D (AdvancedAudioDistribution)")
	shell.Println()

	shell.AddCmd(&ishell.Cmd{
		Name: "connect",
		Help: "set the target device address for subsequent commands: connect host:port",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Println("usage: connect <address>")
				return
			}
			state.address = c.Args[0]
			c.Printf("target set to %s\n", state.address)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "discover",
		Help: "run a ServiceSearch + ServiceAttribute discovery against the connected address: discover [uuid...]",
		Func: func(c *ishell.Context) {
			if state.address == "" {
				c.Println("no target address; run connect first")
				return
			}

			uuids := c.Args
			if len(uuids) == 0 {
				uuids = discoverUUIDs
			}

			wait := time.Duration(waitSeconds * float64(time.Second))
			services, err := discoverAddress(state.address, uuids, wait)
			if err != nil {
				c.Printf("discover: %v\n", err)
				return
			}

			for _, svc := range services {
				c.Printf("handle 0x%08X, %d class(es)\n", svc.Handle, len(svc.Classes))
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "cache",
		Help: "print the last cached discovery for an address: cache <address>",
		Func: func(c *ishell.Context) {
			addr := state.address
			if len(c.Args) == 1 {
				addr = c.Args[0]
			}
			if addr == "" {
				c.Println("usage: cache <address> (or run connect first)")
				return
			}

			store := cache.Open(cfg.CachePath)
			if err := store.Load(); err != nil {
				c.Printf("cache: %v\n", err)
				return
			}

			services, ok := store.Get(addr)
			if !ok {
				c.Printf("no cached discovery for %s\n", addr)
				return
			}
			for _, svc := range services {
				c.Printf("handle 0x%08X, %d class(es), %d profile(s)\n",
					svc.Handle, len(svc.Classes), len(svc.Profiles))
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "show the current target address",
		Func: func(c *ishell.Context) {
			if state.address == "" {
				c.Println("no target address set")
				return
			}
			c.Printf("target: %s\n", state.address)
		},
	})

	shell.Run()
	shell.Close()
}

func interactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "run btsdp in an interactive shell, holding one target address across commands",
		Run:   startInteractive,
	}
}
