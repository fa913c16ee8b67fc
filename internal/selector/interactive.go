package selector

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bestruirui/bestsub-release/internal/domain/build"
)

// Interactive prompts the operator with numbered menus for
// architectures and platforms. Answers are index lists ("1 3"),
// names ("arm64 windows") or "all".
type Interactive struct {
	in  *bufio.Reader
	out io.Writer
}

// NewInteractive creates a prompt-based source over the given streams.
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Select implements Source.
func (s *Interactive) Select(_ context.Context) (Matrix, error) {
	arches, err := promptChoices(s.in, s.out, "architectures", archOptions())
	if err != nil {
		return Matrix{}, err
	}

	platforms, err := promptChoices(s.in, s.out, "target platforms", platformOptions())
	if err != nil {
		return Matrix{}, err
	}

	return validate(Matrix{
		Platforms:     platforms,
		Architectures: arches,
	})
}

// option pairs a menu label with its typed value parser.
type option[T any] struct {
	label string
	value T
}

func archOptions() []option[build.Architecture] {
	arches := build.Architectures()
	options := make([]option[build.Architecture], 0, len(arches))

	for _, arch := range arches {
		options = append(options, option[build.Architecture]{label: string(arch), value: arch})
	}

	return options
}

func platformOptions() []option[build.Platform] {
	platforms := build.Platforms()
	options := make([]option[build.Platform], 0, len(platforms))

	for _, platform := range platforms {
		options = append(options, option[build.Platform]{label: string(platform), value: platform})
	}

	return options
}

// promptChoices renders a numbered menu plus an "all" entry and parses
// one answer line into an ordered, de-duplicated selection.
func promptChoices[T comparable](in *bufio.Reader, out io.Writer, what string, options []option[T]) ([]T, error) {
	fmt.Fprintf(out, "Select %s (space-separated numbers or names, \"all\" for everything):\n", what)

	for i, opt := range options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, opt.label)
	}

	fmt.Fprintf(out, "  a) all\n> ")

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("read selection: %w", err)
	}

	return parseChoices(line, options)
}

// parseChoices resolves a raw answer line against the menu options.
func parseChoices[T comparable](line string, options []option[T]) ([]T, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(line), func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})

	if len(fields) == 0 {
		return nil, errEmptySelection
	}

	selected := make([]T, 0, len(options))
	seen := make(map[T]struct{}, len(options))

	appendOption := func(opt option[T]) {
		if _, ok := seen[opt.value]; ok {
			return
		}

		seen[opt.value] = struct{}{}
		selected = append(selected, opt.value)
	}

	for _, field := range fields {
		lowered := strings.ToLower(field)
		if lowered == "a" || lowered == "all" {
			for _, opt := range options {
				appendOption(opt)
			}

			continue
		}

		if index, err := strconv.Atoi(field); err == nil {
			if index < 1 || index > len(options) {
				return nil, fmt.Errorf("choice %d out of range", index)
			}

			appendOption(options[index-1])

			continue
		}

		matched := false

		for _, opt := range options {
			if strings.EqualFold(opt.label, field) {
				appendOption(opt)

				matched = true

				break
			}
		}

		if !matched {
			return nil, fmt.Errorf("unknown choice %q", field)
		}
	}

	return selected, nil
}
