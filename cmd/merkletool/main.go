package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/railgun-reloaded/merkletree-manager/pkg/bytesutil"
	"github.com/railgun-reloaded/merkletree-manager/pkg/config"
	"github.com/railgun-reloaded/merkletree-manager/pkg/hash"
	"github.com/railgun-reloaded/merkletree-manager/pkg/logger"
	"github.com/railgun-reloaded/merkletree-manager/pkg/merkletree"
	"github.com/railgun-reloaded/merkletree-manager/pkg/treepool"
)

func main() {
	app := &cli.App{
		Name:  "merkletool",
		Usage: "Build Railgun sparse merkle trees and produce/verify inclusion proofs",
		Description: `Reads newline-delimited hex leaves, accumulates them into a rolling
pool of fixed-depth sparse merkle trees, and prints roots or compact
inclusion proofs. Proof verification is a pure check against the
proof's captured root and needs no tree state.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "depth",
				Aliases: []string{"d"},
				Value:   config.DefaultTreeDepth,
				Usage:   "tree depth (per-tree capacity is 2^depth leaves)",
				EnvVars: []string{config.EnvTreeDepth},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvVerbose},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "root",
				Usage: "Insert leaves from a file, finalize, and print every tree root",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "leaves",
						Usage:    "path to newline-delimited hex leaf file",
						Required: true,
					},
				},
				Action: rootCommand,
			},
			{
				Name:  "prove",
				Usage: "Build the pool from a leaf file and print a JSON proof for one leaf",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "leaves",
						Usage:    "path to newline-delimited hex leaf file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "leaf",
						Usage:    "hex value of the leaf to prove",
						Required: true,
					},
				},
				Action: proveCommand,
			},
			{
				Name:  "verify",
				Usage: "Validate a JSON proof produced by the prove command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "proof",
						Usage:    "path to a JSON proof file",
						Required: true,
					},
				},
				Action: verifyCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func buildPool(c *cli.Context) (*treepool.Pool, error) {
	cfg := &config.Config{
		TreeDepth: c.Int("depth"),
		Verbose:   c.Bool("verbose"),
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errs.ToAggregate())
	}

	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logger")
	}

	leaves, err := readLeaves(c.String("leaves"))
	if err != nil {
		return nil, err
	}

	pool, err := treepool.NewPool(cfg.TreeDepth, l)
	if err != nil {
		return nil, err
	}
	if _, err := pool.InsertLeaves(leaves, 0); err != nil {
		return nil, err
	}
	if err := pool.FinalizeTree(); err != nil {
		return nil, err
	}
	return pool, nil
}

func readLeaves(path string) ([][hash.Size]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read leaf file %s", path)
	}

	var leaves [][hash.Size]byte
	for i, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		leaf, err := bytesutil.HexToLeaf(line)
		if err != nil {
			return nil, fmt.Errorf("leaf file %s line %d: %w", path, i+1, err)
		}
		if !bytesutil.ValidLeaf(leaf[:]) {
			return nil, fmt.Errorf("leaf file %s line %d: leaf %s is not below the field modulus", path, i+1, line)
		}
		leaves = append(leaves, leaf)
	}
	if len(leaves) == 0 {
		return nil, fmt.Errorf("leaf file %s contains no leaves", path)
	}
	return leaves, nil
}

func rootCommand(c *cli.Context) error {
	pool, err := buildPool(c)
	if err != nil {
		return err
	}

	for i, root := range pool.Roots() {
		fmt.Printf("tree %d: %s\n", i, bytesutil.LeafToHex(root))
	}
	return nil
}

func proveCommand(c *cli.Context) error {
	pool, err := buildPool(c)
	if err != nil {
		return err
	}

	leaf, err := bytesutil.HexToLeaf(c.String("leaf"))
	if err != nil {
		return err
	}

	proof, treeIndex, err := pool.GenerateProof(leaf)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode proof")
	}
	fmt.Fprintf(os.Stderr, "proof from tree %d\n", treeIndex)
	fmt.Println(string(out))
	return nil
}

func verifyCommand(c *cli.Context) error {
	path := c.String("proof")
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read proof file %s", path)
	}

	var proof merkletree.Proof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return errors.Wrapf(err, "failed to decode proof file %s", path)
	}

	if !merkletree.ValidateProof(&proof) {
		fmt.Println("invalid")
		return cli.Exit("proof does not validate against its root", 1)
	}
	fmt.Println("valid")
	return nil
}
