package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "probe":
		probe(os.Args[2:])
	case "clock":
		clockBurst(os.Args[2:])
	case "panic":
		sendPanic(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI test utility")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list               - List all MIDI ports")
	fmt.Println("  probe <port#>      - Send a middle C on channel 0")
	fmt.Println("  clock <port#>      - Send 2s of MIDI clock at 120 BPM")
	fmt.Println("  panic <port#>      - All notes off on every channel")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ch <- result{ins: midi.GetInPorts(), outs: midi.GetOutPorts()}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! MIDI backend is hung.")
	}
}

func openArg(args []string) (func(midi.Message) error, bool) {
	if len(args) < 1 {
		usage()
		return nil, false
	}
	idx, err := strconv.Atoi(args[0])
	outs := midi.GetOutPorts()
	if err != nil || idx < 0 || idx >= len(outs) {
		fmt.Println("bad port number; run 'list' first")
		return nil, false
	}
	sender, err := midi.SendTo(outs[idx])
	if err != nil {
		fmt.Printf("open failed: %v\n", err)
		return nil, false
	}
	fmt.Printf("using %s\n", outs[idx].String())
	return sender, true
}

func probe(args []string) {
	sender, ok := openArg(args)
	if !ok {
		return
	}
	fmt.Println("note on: C4 ch0")
	sender(midi.NoteOn(0, 60, 100))
	time.Sleep(500 * time.Millisecond)
	sender(midi.NoteOff(0, 60))
	fmt.Println("note off")
}

func clockBurst(args []string) {
	sender, ok := openArg(args)
	if !ok {
		return
	}
	// 120 BPM -> (60000/120)/24 = 20.833ms between pulses
	interval := time.Duration(60000.0 / 120 / 24 * float64(time.Millisecond))
	fmt.Printf("sending clock every %v for 2s\n", interval)
	sender(midi.Start())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-ticker.C:
			sender(midi.TimingClock())
		case <-deadline:
			sender(midi.Stop())
			fmt.Println("done")
			return
		}
	}
}

func sendPanic(args []string) {
	sender, ok := openArg(args)
	if !ok {
		return
	}
	for ch := uint8(0); ch < 16; ch++ {
		sender(midi.ControlChange(ch, 123, 0))
		for pitch := uint8(0); pitch < 128; pitch++ {
			sender(midi.NoteOff(ch, pitch))
		}
	}
	fmt.Println("all notes off sent")
}
