// Command sparsedisk-debug replays a script of sparse array operations
// read from stdin, one op per line, and prints results plus debug
// traces. It stands in for a host process driving the library: the
// normal host (a block-device server, a filter, a test harness) issues
// these same calls from Go directly.
//
// Script grammar, one command per line, fields separated by spaces:
//
//	write  <offset> <hex-bytes>
//	read   <offset> <count>
//	fill   <offset> <count> <byte>
//	zero   <offset> <count>
//	extents <offset> <count>
//	blit   <dst-offset> <src-offset> <count>   (blits from the same array)
//	quit
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/nbdkit-go/sparsedisk"
	"github.com/nbdkit-go/sparsedisk/internal/spillstore"
)

func main() {
	debug := flag.Bool("debug", false, "emit debug traces via log.Printf")
	useSpill := flag.Bool("spill", false, "back pages with an mmap'd spill arena instead of the Go heap")
	flag.Parse()

	var store sparsearray.PageStore
	if *useSpill {
		s, err := spillstore.New("", sparsearray.PageSize)
		if err != nil {
			log.Fatalf("spillstore.New: %v", err)
		}
		defer s.Close()
		store = s
	}

	a := sparsearray.NewArray(*debug, store)
	defer a.Close()
	if *debug {
		a.SetDebugSink(func(format string, args ...any) {
			log.Printf(format, args...)
		})
	}

	if err := run(a, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(a *sparsearray.Array, in *os.File, out *os.File) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if fields[0] == "quit" {
			return nil
		}
		if err := dispatch(a, fields, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func dispatch(a *sparsearray.Array, fields []string, out *os.File) error {
	switch fields[0] {
	case "write":
		offset, err := parseUint(fields[1])
		if err != nil {
			return err
		}
		buf, err := hex.DecodeString(fields[2])
		if err != nil {
			return fmt.Errorf("decoding hex bytes: %w", err)
		}
		return a.Write(buf, offset)

	case "read":
		offset, err := parseUint(fields[1])
		if err != nil {
			return err
		}
		count, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return err
		}
		buf := make([]byte, count)
		a.Read(buf, offset)
		fmt.Fprintf(out, "%s\n", hex.EncodeToString(buf))
		return nil

	case "fill":
		offset, err := parseUint(fields[1])
		if err != nil {
			return err
		}
		count, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return err
		}
		b, err := strconv.ParseUint(fields[3], 16, 8)
		if err != nil {
			return err
		}
		return a.Fill(byte(b), uint32(count), offset)

	case "zero":
		offset, err := parseUint(fields[1])
		if err != nil {
			return err
		}
		count, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return err
		}
		a.Zero(uint32(count), offset)
		return nil

	case "extents":
		offset, err := parseUint(fields[1])
		if err != nil {
			return err
		}
		count, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return err
		}
		exts, err := sparsearray.NewExtentList(offset, offset+count)
		if err != nil {
			return err
		}
		if err := a.Extents(uint32(count), offset, exts); err != nil {
			return err
		}
		for i := 0; i < exts.Count(); i++ {
			e := exts.Get(i)
			fmt.Fprintf(out, "%d %d %d\n", e.Offset, e.Length, e.Type)
		}
		return nil

	case "blit":
		dstOffset, err := parseUint(fields[1])
		if err != nil {
			return err
		}
		srcOffset, err := parseUint(fields[2])
		if err != nil {
			return err
		}
		count, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return err
		}
		return a.Blit(a, uint32(count), srcOffset, dstOffset)

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
