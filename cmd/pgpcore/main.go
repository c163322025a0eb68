// This is free and unencumbered software released into the public domain.

// Command pgpcore exercises the Signature, Encryption, and Decryption
// Engines against a keyring file: sign or verify a message on stdin,
// or encrypt/decrypt it for a set of recipients or passphrases.
package main

import (
	"bufio"
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"nullprogram.com/x/optparse"

	"github.com/alios/openpgp-cryptoapi/algorithm"
	"github.com/alios/openpgp-cryptoapi/decrypt"
	"github.com/alios/openpgp-cryptoapi/encrypt"
	"github.com/alios/openpgp-cryptoapi/keyring"
	"github.com/alios/openpgp-cryptoapi/packet"
	"github.com/alios/openpgp-cryptoapi/sign"
)

const (
	cmdSign = iota
	cmdVerify
	cmdEncrypt
	cmdDecrypt
)

// fatal prints the message like fmt.Printf() and exits with status 1.
func fatal(format string, args ...interface{}) {
	buf := bytes.NewBufferString("pgpcore: ")
	fmt.Fprintf(buf, format, args...)
	buf.WriteRune('\n')
	os.Stderr.Write(buf.Bytes())
	os.Exit(1)
}

type config struct {
	cmd        int
	keyringPath string
	keyID      string
	hashName   string
	cipherName string
	recipients []string
	passphrase string
	sigIndex   int
	help       bool
}

func usage(w io.Writer) {
	bw := bufio.NewWriter(w)
	i := "  "
	p := "pgpcore"
	f := func(s ...interface{}) { fmt.Fprintln(bw, s...) }
	f("Usage:")
	f(i, p, "-S -k keyring.pgp -K keyid [-H hash] <msg.pgp  >sig.pgp")
	f(i, p, "-V -k keyring.pgp [-n index] <signed.pgp")
	f(i, p, "-E -k keyring.pgp -r keyid [-r keyid ...] [-c cipher] <msg.pgp  >enc.pgp")
	f(i, p, "-D -k keyring.pgp <enc.pgp  >msg.pgp")
	f(i, p, "-D -P passphrase <enc.pgp  >msg.pgp")
	f("Commands:")
	f(i, "-S, --sign       sign the message on stdin with --key-id")
	f(i, "-V, --verify     verify signature --index against --keyring")
	f(i, "-E, --encrypt    encrypt the message on stdin for --recipient keys")
	f(i, "-D, --decrypt    decrypt the message on stdin using --keyring/--passphrase")
	f("Options:")
	f(i, "-k, --keyring FILE     packet stream holding public/secret keys")
	f(i, "-K, --key-id ID        signing key id (16 hex chars)")
	f(i, "-r, --recipient ID     recipient key id, repeatable (encrypt)")
	f(i, "-P, --passphrase PASS  symmetric passphrase (decrypt)")
	f(i, "-H, --hash NAME        hash algorithm name [sha256]")
	f(i, "-c, --cipher NAME      cipher algorithm name [aes256]")
	f(i, "-n, --index N          signature index to verify [0]")
	f(i, "-h, --help             print this help message")
	bw.Flush()
}

func parse() *config {
	conf := &config{hashName: "sha256", cipherName: "aes256"}

	options := []optparse.Option{
		{"sign", 'S', optparse.KindNone},
		{"verify", 'V', optparse.KindNone},
		{"encrypt", 'E', optparse.KindNone},
		{"decrypt", 'D', optparse.KindNone},

		{"keyring", 'k', optparse.KindRequired},
		{"key-id", 'K', optparse.KindRequired},
		{"recipient", 'r', optparse.KindRequired},
		{"passphrase", 'P', optparse.KindRequired},
		{"hash", 'H', optparse.KindRequired},
		{"cipher", 'c', optparse.KindRequired},
		{"index", 'n', optparse.KindRequired},
		{"help", 'h', optparse.KindNone},
	}

	results, _, err := optparse.Parse(options, os.Args)
	if err != nil {
		usage(os.Stderr)
		fatal("%s", err)
	}
	for _, result := range results {
		switch result.Long {
		case "sign":
			conf.cmd = cmdSign
		case "verify":
			conf.cmd = cmdVerify
		case "encrypt":
			conf.cmd = cmdEncrypt
		case "decrypt":
			conf.cmd = cmdDecrypt
		case "keyring":
			conf.keyringPath = result.Optarg
		case "key-id":
			conf.keyID = result.Optarg
		case "recipient":
			conf.recipients = append(conf.recipients, result.Optarg)
		case "passphrase":
			conf.passphrase = result.Optarg
		case "hash":
			conf.hashName = result.Optarg
		case "cipher":
			conf.cipherName = result.Optarg
		case "index":
			n, err := strconv.Atoi(result.Optarg)
			if err != nil {
				fatal("--index (-n): %s", err)
			}
			conf.sigIndex = n
		case "help":
			usage(os.Stdout)
			os.Exit(0)
		}
	}
	return conf
}

func hashByName(name string) algorithm.HashAlgo {
	switch name {
	case "md5":
		return algorithm.HashMD5
	case "sha1":
		return algorithm.HashSHA1
	case "ripemd160":
		return algorithm.HashRIPEMD160
	case "sha224":
		return algorithm.HashSHA224
	case "sha256":
		return algorithm.HashSHA256
	case "sha384":
		return algorithm.HashSHA384
	case "sha512":
		return algorithm.HashSHA512
	default:
		fatal("unknown hash algorithm: %s", name)
		return 0
	}
}

func cipherByName(name string) algorithm.CipherAlgo {
	switch name {
	case "aes128":
		return algorithm.CipherAES128
	case "aes192":
		return algorithm.CipherAES192
	case "aes256":
		return algorithm.CipherAES256
	case "blowfish":
		return algorithm.CipherBlowfish
	default:
		fatal("unknown cipher algorithm: %s", name)
		return 0
	}
}

func loadKeyring(path string) *keyring.KeyRing {
	f, err := os.Open(path)
	if err != nil {
		fatal("%s", err)
	}
	defer f.Close()
	kr, err := keyring.Load(f)
	if err != nil {
		fatal("loading keyring: %s", err)
	}
	return kr
}

func readMessage(r io.Reader) *packet.Message {
	msg, err := packet.ParseMessage(r)
	if err != nil {
		fatal("parsing message: %s", err)
	}
	return msg
}

func main() {
	conf := parse()
	if conf.keyringPath == "" && conf.cmd != cmdDecrypt {
		fatal("--keyring is required")
	}

	switch conf.cmd {
	case cmdSign:
		kr := loadKeyring(conf.keyringPath)
		msg := readMessage(os.Stdin)
		sig, err := sign.Sign(kr, msg, hashByName(conf.hashName), conf.keyID, time.Now(), rand.Reader)
		if err != nil {
			fatal("%s", err)
		}
		os.Stdout.Write(sig.Serialize())

	case cmdVerify:
		kr := loadKeyring(conf.keyringPath)
		msg := readMessage(os.Stdin)
		if sign.Verify(kr, msg, conf.sigIndex) {
			fmt.Println("signature valid")
		} else {
			fmt.Println("signature invalid")
			os.Exit(1)
		}

	case cmdEncrypt:
		kr := loadKeyring(conf.keyringPath)
		if len(conf.recipients) == 0 {
			fatal("--recipient is required for --encrypt")
		}
		var recipients []*packet.PublicKey
		for _, id := range conf.recipients {
			found := kr.FindPublic(id)
			if len(found) == 0 {
				fatal("no public key for recipient %s", id)
			}
			recipients = append(recipients, found[0])
		}
		msg := readMessage(os.Stdin)
		out, err := encrypt.Encrypt(rand.Reader, cipherByName(conf.cipherName), recipients, msg)
		if err != nil {
			fatal("%s", err)
		}
		os.Stdout.Write(out.Serialize())

	case cmdDecrypt:
		msg := readMessage(os.Stdin)
		if conf.keyringPath != "" {
			kr := loadKeyring(conf.keyringPath)
			out, err := decrypt.DecryptAsymmetric(kr, msg)
			if err != nil {
				fatal("%s", err)
			}
			os.Stdout.Write(out.Serialize())
			return
		}
		if conf.passphrase == "" {
			fatal("--keyring or --passphrase is required for --decrypt")
		}
		out, err := decrypt.DecryptSymmetric([][]byte{[]byte(conf.passphrase)}, msg)
		if err != nil {
			fatal("%s", err)
		}
		os.Stdout.Write(out.Serialize())
	}
}
