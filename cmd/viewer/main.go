// Command viewer inspects the call and voicemail history directly from
// the badger files, read-only, while the server keeps running.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"

	"unicomm/domain"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	Colours        bool   `envconfig:"VIEWER_COLOURS" default:"true"`
}

func main() {
	view := flag.String("view", "calls", "calls|voicemails")
	flag.Parse()

	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch *view {
	case "calls":
		err = renderCalls(db, config.Colours)
	case "voicemails":
		err = renderVoicemails(db, config.Colours)
	default:
		err = fmt.Errorf("unknown view %q", *view)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func renderCalls(db *badger.DB, colours bool) error {
	table := newTable([]string{"Call ID", "Type", "State", "Initiator", "Target", "Trunk Ref", "Started", "Reason"})

	err := scanPrefix(db, "call:", func(val []byte) error {
		var call domain.Call
		if err := json.Unmarshal(val, &call); err != nil {
			return nil
		}

		target := fmt.Sprintf("user %d", call.TargetUserID)
		if call.External() {
			target = call.TargetNumber
		}

		displayID := call.ID
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}

		table.Append([]string{
			displayID,
			string(call.Type),
			stateLabel(call.State, colours),
			fmt.Sprintf("%d", call.InitiatorID),
			target,
			call.TrunkRef,
			call.StartedAt.Format("15:04:05"),
			call.FailReason,
		})
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	return nil
}

func renderVoicemails(db *badger.DB, colours bool) error {
	table := newTable([]string{"ID", "Owner", "Call ID", "Caller", "Read", "Created"})

	err := scanPrefix(db, "vm:", func(val []byte) error {
		var vm domain.Voicemail
		if err := json.Unmarshal(val, &vm); err != nil {
			return nil
		}

		caller := vm.CallerNumber
		if vm.CallerName != "" {
			caller = vm.CallerName
		}

		read := "no"
		if vm.Read {
			read = "yes"
		} else if colours {
			read = color.Yellow.Sprint("no")
		}

		displayCall := vm.CallID
		if len(displayCall) > 8 {
			displayCall = displayCall[:8]
		}

		table.Append([]string{
			fmt.Sprintf("%d", vm.ID),
			fmt.Sprintf("%d", vm.OwnerID),
			displayCall,
			caller,
			read,
			vm.CreatedAt.Format("15:04:05"),
		})
		return nil
	})
	if err != nil {
		return err
	}

	table.Render()
	return nil
}

func scanPrefix(db *badger.DB, prefix string, fn func(val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func stateLabel(state domain.CallState, colours bool) string {
	if !colours {
		return string(state)
	}
	switch state {
	case domain.CallConnected:
		return color.Green.Sprint(state)
	case domain.CallFailed:
		return color.Red.Sprint(state)
	case domain.CallRinging:
		return color.Yellow.Sprint(state)
	default:
		return string(state)
	}
}
