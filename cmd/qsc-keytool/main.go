package main

// qsc-keytool ports the Rust original's qsc-tools CLI (keygen, addr,
// sign, verify) onto cobra, the out-of-scope "CLI key-management
// utilities" collaborator named in §1.
//
// Grounded on the teacher's cmd/synnergy/main.go cobra wiring
// (rootCmd.AddCommand per subcommand, Flags() reads inside Run).

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"qscnode/core"
)

func main() {
	rootCmd := &cobra.Command{Use: "qsc-keytool", Short: "ML-DSA-3 keygen, addr, sign, verify"}
	rootCmd.AddCommand(keygenCmd())
	rootCmd.AddCommand(addrCmd())
	rootCmd.AddCommand(signCmd())
	rootCmd.AddCommand(verifyCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func keygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate a fresh ML-DSA-3 keypair and write .sk/.pk files",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			outDir, _ := cmd.Flags().GetString("out-dir")
			name, _ := cmd.Flags().GetString("name")

			if out != "" {
				outDir = filepath.Dir(out)
				name = filepath.Base(out)
			}
			if outDir == "" {
				outDir = "keys"
			}
			if name == "" {
				name = "alice"
			}

			sk, pk, err := core.KeygenMLDSA3()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			skPath := filepath.Join(outDir, name+".sk")
			pkPath := filepath.Join(outDir, name+".pk")
			if err := os.WriteFile(skPath, []byte(hex.EncodeToString(sk)), 0o600); err != nil {
				return err
			}
			if err := os.WriteFile(pkPath, []byte(hex.EncodeToString(pk)), 0o644); err != nil {
				return err
			}
			fmt.Println("Wrote " + pkPath)
			fmt.Println("Wrote " + skPath)
			return nil
		},
	}
	cmd.Flags().String("out", "", "base path (no extension) for .sk/.pk, e.g. --out /keys/alice")
	cmd.Flags().String("out-dir", "", "output directory")
	cmd.Flags().String("name", "", "base name without extension")
	return cmd
}

func addrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addr",
		Short: "derive an address from a public key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			pkFile, _ := cmd.Flags().GetString("pk-file")
			hashAlg, _ := cmd.Flags().GetString("hash-alg")
			pkHex, err := readHexOrFile(pkFile)
			if err != nil {
				return err
			}
			pk, err := hex.DecodeString(pkHex)
			if err != nil {
				return err
			}
			addr := core.AddressOf(pk, core.NewHasher(hashAlg))
			fmt.Println(addr)
			return nil
		},
	}
	cmd.Flags().String("pk-file", "", "path to a file containing the hex-encoded public key")
	cmd.Flags().String("hash-alg", "sha3-512", "sha3-512 or blake2b-512")
	_ = cmd.MarkFlagRequired("pk-file")
	return cmd
}

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "sign a payload with a secret key (hex, or a path to a file containing hex)",
		RunE: func(cmd *cobra.Command, args []string) error {
			skArg, _ := cmd.Flags().GetString("sk")
			payload, _ := cmd.Flags().GetString("payload")
			skHex, err := readHexOrFile(skArg)
			if err != nil {
				return err
			}
			sk, err := hex.DecodeString(skHex)
			if err != nil {
				return err
			}
			sig, err := core.SignMLDSA3([]byte(payload), sk)
			if err != nil {
				return err
			}
			fmt.Println(hex.EncodeToString(sig))
			return nil
		},
	}
	cmd.Flags().String("sk", "", "secret key in hex, or a path to a file containing hex")
	cmd.Flags().String("payload", "", "payload bytes to sign")
	_ = cmd.MarkFlagRequired("sk")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "verify a detached signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			pkArg, _ := cmd.Flags().GetString("pk")
			payload, _ := cmd.Flags().GetString("payload")
			sigArg, _ := cmd.Flags().GetString("sig")
			pk, err := hex.DecodeString(strings.TrimSpace(pkArg))
			if err != nil {
				return err
			}
			sig, err := hex.DecodeString(strings.TrimSpace(sigArg))
			if err != nil {
				return err
			}
			if core.VerifyMLDSA3([]byte(payload), sig, pk) {
				fmt.Println("OK")
			} else {
				fmt.Println("FAIL")
			}
			return nil
		},
	}
	cmd.Flags().String("pk", "", "public key in hex")
	cmd.Flags().String("payload", "", "payload bytes that were signed")
	cmd.Flags().String("sig", "", "detached signature in hex")
	_ = cmd.MarkFlagRequired("pk")
	_ = cmd.MarkFlagRequired("payload")
	_ = cmd.MarkFlagRequired("sig")
	return cmd
}

// readHexOrFile mirrors the Rust original's read_hex_or_file: if s
// names an existing file, read and trim its contents; otherwise treat
// s itself as the hex string.
func readHexOrFile(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if _, err := os.Stat(s); err == nil {
		b, err := os.ReadFile(s)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return strings.TrimSpace(s), nil
}
