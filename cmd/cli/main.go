package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/zkvote-node/log"
	"github.com/vocdoni/zkvote-node/types"
)

const defaultHost = "http://127.0.0.1:9095"

var (
	host     = flag.String("host", defaultHost, "node API URL")
	adminKey = flag.StringP("privkey", "k", "", "admin private key, signs the admin tokens")
	election = flag.StringP("election", "e", "default", "election ID")
	web3rpc  = flag.String("web3.rpc", "", "web3 rpc endpoint, to compare the tally with the contract")
	contract = flag.String("web3.contract", "", "EVoting contract address")
	timeout  = flag.Duration("timeout", 5*time.Minute, "timeout for the command")
	logLevel = flag.StringP("log.level", "l", "info", "log level")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: zkvote-cli [flags] <command> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  token                      print a fresh admin token\n")
	fmt.Fprintf(os.Stderr, "  election <name>            create an election\n")
	fmt.Fprintf(os.Stderr, "  candidates <name>...       add candidates\n")
	fmt.Fprintf(os.Stderr, "  register <identifier>...   register voters\n")
	fmt.Fprintf(os.Stderr, "  vote <identifier> <id>     prove and cast a vote\n")
	fmt.Fprintf(os.Stderr, "  tally                      print the tally\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	log.Init(*logLevel, "stderr", nil)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	eid := types.DefaultElectionID
	if *election != "default" {
		var err error
		if eid, err = types.ParseElectionID(*election); err != nil {
			log.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	apiHost := *host
	if args[0] == "token" {
		apiHost = ""
	}
	s, err := NewCLIServices(ctx, apiHost, *adminKey, *web3rpc, *contract, eid)
	if err != nil {
		log.Fatal(err)
	}

	switch cmd, rest := args[0], args[1:]; {
	case cmd == "token":
		err = s.AdminToken()
	case cmd == "election" && len(rest) == 1:
		err = s.CreateElection(rest[0])
	case cmd == "candidates" && len(rest) > 0:
		err = s.AddCandidates(rest...)
	case cmd == "register" && len(rest) > 0:
		err = s.RegisterVoters(rest...)
	case cmd == "vote" && len(rest) == 2:
		err = s.Vote(rest[0], rest[1])
	case cmd == "tally" && len(rest) == 0:
		err = s.Tally()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}
