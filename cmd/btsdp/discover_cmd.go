package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/fatih/structs"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/steveford-obs/btsdp/a2dp"
	"github.com/steveford-obs/btsdp/discover"
	"github.com/steveford-obs/btsdp/internal/cache"
	"github.com/steveford-obs/btsdp/l2cap"
	"github.com/steveford-obs/btsdp/sdp"
)

var (
	discoverUUIDs  []string
	discoverCached bool
)

func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover <address>",
		Short: "search a remote device for service records and interpret any A2DP endpoint",
		Long: "discover connects to <address> (a host:port byte-stream stand-in for an " +
			"L2CAP PSM 0x0001 socket), runs a ServiceSearch for the given UUIDs, fetches " +
			"every matched record's attributes, and prints the result. With --cached, it " +
			"prints the last successful discovery for <address> instead of reconnecting.",
		Args: cobra.ExactArgs(1),
		RunE: runDiscover,
	}

	cmd.Flags().StringSliceVarP(&discoverUUIDs, "uuid", "u", []string{"110D"},
		"service class UUID to search for, repeatable (default: AdvancedAudioDistribution)")
	cmd.Flags().BoolVar(&discoverCached, "cached", false, "print the last cached discovery instead of connecting")

	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	address := args[0]

	if discoverCached {
		store := cache.Open(cfg.CachePath)
		if err := store.Load(); err != nil {
			log.Warnf("btsdp: loading discovery cache: %v", err)
		}
		services, ok := store.Get(address)
		if !ok {
			return fmt.Errorf("btsdp: no cached discovery for %s", address)
		}
		printCachedServices(services)
		return nil
	}

	wait, err := cast.ToDurationE(fmt.Sprintf("%.3fs", waitSeconds))
	if err != nil {
		return fmt.Errorf("btsdp: invalid --wait value: %w", err)
	}

	services, err := discoverAddress(address, discoverUUIDs, wait)
	if err != nil {
		return err
	}

	printServices(services)
	return nil
}

// discoverAddress dials address, runs a ServiceSearch for uuidStrs, and
// fetches every matched record's attributes within wait. On success the
// discovery is also written to the on-disk cache keyed by address, so a
// later `--cached` lookup (or the interactive shell's `cache` command)
// can show it without reconnecting.
func discoverAddress(address string, uuidStrs []string, wait time.Duration) ([]*discover.Service, error) {
	uuids := make([]sdp.UUID, 0, len(uuidStrs))
	for _, s := range uuidStrs {
		u, err := sdp.ParseUUID(s)
		if err != nil {
			return nil, err
		}
		uuids = append(uuids, u)
	}

	conn, err := dialTCP(address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	sock := l2cap.NewSocket(conn)
	conn.OnFrame(sock.Dispatch)

	bar := pb.New(1)
	bar.ShowCounters = false
	bar.Prefix("ServiceSearch ")
	bar.Start()

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	done := make(chan struct{})
	var services []*discover.Service
	var discoverErr error

	driver := discover.NewDriver()
	driver.Discover(ctx, wait, sock, uuids, func(svcs []*discover.Service, err error) {
		services = svcs
		discoverErr = err
		close(done)
	})

	select {
	case <-done:
	case <-ctx.Done():
		bar.Finish()
		return nil, fmt.Errorf("btsdp: discovery timed out")
	}
	bar.Finish()

	if discoverErr != nil {
		return nil, discoverErr
	}

	store := cache.Open(cfg.CachePath)
	if err := store.Load(); err != nil {
		log.Warnf("btsdp: loading discovery cache: %v", err)
	}
	if flat, err := cache.FromDiscoverServices(services); err == nil {
		store.Put(address, flat)
		if err := store.Save(); err != nil {
			log.Warnf("btsdp: saving discovery cache: %v", err)
		}
	} else {
		log.Warnf("btsdp: flattening discovery for cache: %v", err)
	}

	return services, nil
}

func printServices(services []*discover.Service) {
	fmt.Printf("%d service(s) found\n", len(services))

	for _, svc := range services {
		fmt.Printf("\nhandle 0x%08X\n", svc.Handle)
		fmt.Printf("  classes: %s\n", joinUUIDs(svc.Classes))

		if svc.HasClass(sdp.UUIDAudioSink) || svc.HasClass(sdp.UUIDAudioSource) {
			profile, err := a2dp.Interpret(svc)
			if err != nil {
				fmt.Printf("  a2dp: %v\n", err)
				continue
			}
			printA2DPProfile(profile)
		}
	}
}

func printA2DPProfile(p *a2dp.Profile) {
	fields := structs.Map(p)
	fmt.Println("  a2dp profile:")
	for _, name := range []string{"Type", "ProfileVersion", "TransportVersion", "PSM", "Features"} {
		fmt.Printf("    %-16s %v\n", name, fields[name])
	}
}

func printCachedServices(services []cache.Service) {
	fmt.Printf("%d cached service(s)\n", len(services))
	for _, svc := range services {
		fmt.Printf("\nhandle 0x%08X\n", svc.Handle)
		fmt.Printf("  classes: %d\n", len(svc.Classes))
		for _, p := range svc.Profiles {
			fmt.Printf("  profile version 0x%04X\n", p.Version)
		}
	}
}

func joinUUIDs(uuids []sdp.UUID) string {
	parts := make([]string, 0, len(uuids))
	for _, u := range uuids {
		parts = append(parts, u.String())
	}
	return strings.Join(parts, ", ")
}
