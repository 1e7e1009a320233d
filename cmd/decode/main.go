// decode 离线解码十六进制载荷并输出 JSON，便于排查现场数据。
//
//	decode [--decoder decentlab] [--pretty] [--format json|cbor] <hex>...
//
// 未给出载荷参数时逐行读取标准输入。cbor 格式输出 CBOR 序列（每条载荷一项）。
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/taoyao-code/thingpark-broker/internal/codec"
	"github.com/taoyao-code/thingpark-broker/internal/decoder"
)

// errDecodeFailed 至少一条载荷解码失败
var errDecodeFailed = errors.New("one or more payloads failed to decode")

type line struct {
	Payload string         `json:"payload"`
	Decoder string         `json:"decoder"`
	Result  any            `json:"result,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if !errors.Is(err, errDecodeFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	name := flagSet.StringP("decoder", "d", decoder.DecentlabName, "decoder name")
	pretty := flagSet.BoolP("pretty", "p", false, "indent JSON output")
	format := flagSet.StringP("format", "f", "json", "output format: json or cbor")
	list := flagSet.Bool("list", false, "list decoders and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *format != "json" && *format != "cbor" {
		return fmt.Errorf("unknown format %q", *format)
	}

	registry := decoder.NewRegistry(decoder.NewDecentlab())
	if *list {
		for _, n := range registry.Names() {
			d, _ := registry.Lookup(n)
			fmt.Fprintf(stdout, "%s\t%s\n", n, d.Description())
		}
		return nil
	}
	dec, ok := registry.Lookup(*name)
	if !ok {
		return fmt.Errorf("unknown decoder %q (available: %s)", *name, strings.Join(registry.Names(), ", "))
	}

	payloads := flagSet.Args()
	if len(payloads) == 0 {
		sc := bufio.NewScanner(stdin)
		for sc.Scan() {
			if s := strings.TrimSpace(sc.Text()); s != "" {
				payloads = append(payloads, s)
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}

	enc := json.NewEncoder(stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	failed := false
	for _, p := range payloads {
		out := line{Payload: p, Decoder: dec.Name()}
		res, err := dec.DecodePayload(p)
		if err != nil {
			out.Error = err.Error()
			failed = true
		} else {
			out.Result, out.Data = res.Detail, res.Fields
		}
		if err := write(stdout, enc, *format, out); err != nil {
			return err
		}
	}
	if failed {
		return errDecodeFailed
	}
	return nil
}

func write(w io.Writer, enc *json.Encoder, format string, v line) error {
	if format == "json" {
		return enc.Encode(v)
	}
	b, err := codec.MarshalCBOR(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
