package gt

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys for optional "key=value" command arguments.
const (
	KeyFrames  = "frames"
	KeySize    = "size"
	KeyWorkers = "workers"
)

var setKeys = map[string]bool{
	KeyFrames:  true,
	KeySize:    true,
	KeyWorkers: true,
}

// Command is a command line split into words.  The first word names the command;
// the rest are positional arguments or optional settings of the form "<key>=<value>".
type Command []string

// String returns a space-separated command line
func (cmd Command) String() string {
	return strings.Join([]string(cmd), " ")
}

// Name returns the first argument which is assumed to be the name of the command.
func (cmd Command) Name() string {
	if len(cmd) == 0 {
		return ""
	}
	return cmd[0]
}

// Parameter scans a command for any "key=value" argument and returns
// the value of the passed 'key'.
func (cmd Command) Parameter(key string) (value string, found bool) {
	if len(cmd) > 1 {
		for _, arg := range cmd[1:] {
			elems := strings.Split(arg, "=")
			if len(elems) == 2 && elems[0] == key {
				return elems[1], true
			}
		}
	}
	return
}

// IntParameter returns the integer value of a "key=value" argument or def if the key
// is absent.
func (cmd Command) IntParameter(key string, def int) (int, error) {
	s, found := cmd.Parameter(key)
	if !found {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not an integer", key, s)
	}
	return n, nil
}

// SizeParameter parses a "key=WxH" argument or returns def if the key is absent.
func (cmd Command) SizeParameter(key string, def Size) (Size, error) {
	s, found := cmd.Parameter(key)
	if !found {
		return def, nil
	}
	var size Size
	if _, err := fmt.Sscanf(s, "%dx%d", &size.Width, &size.Height); err != nil || size.Width <= 0 || size.Height <= 0 {
		return Size{}, fmt.Errorf("%s=%q must be WIDTHxHEIGHT", key, s)
	}
	return size, nil
}

// CommandArgs sets a variadic argument set of string pointers to command arguments,
// ignoring setting arguments of the form "<key>=<value>".  If there aren't enough
// arguments to set a target, the target is set to the empty string.  It returns an
// 'overflow' slice that has all arguments beyond those needed for targets.
func (cmd Command) CommandArgs(targets ...*string) (overflow []string) {
	overflow = make([]string, 0, len(cmd))
	for _, target := range targets {
		*target = ""
	}
	if len(cmd) < 2 {
		return
	}
	cur := 0
	for _, arg := range cmd[1:] {
		elems := strings.Split(arg, "=")
		if len(elems) == 2 && setKeys[elems[0]] {
			continue
		}
		if cur >= len(targets) {
			overflow = append(overflow, arg)
		} else {
			*(targets[cur]) = arg
			cur++
		}
	}
	return
}
