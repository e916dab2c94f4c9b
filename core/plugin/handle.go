package plugin

import (
	"fmt"
	"strings"
	"sync"

	shlex "github.com/anmitsu/go-shlex"
	lua "github.com/yuin/gopher-lua"
)

// EntryPoint is the function every plugin must define.
const EntryPoint = "run"

// descriptionGlobal optionally holds a one line description shown by help.
const descriptionGlobal = "short"

// Handle is one loaded plugin: a private Lua state plus the plugin's
// entry point. Handles share nothing with each other, so a misbehaving
// plugin can only break itself.
//
// Lua states are not goroutine-safe; the mutex serializes calls into the
// state. The shell is single-threaded so the lock is normally uncontended.
type Handle struct {
	name  string
	short string

	mu    sync.Mutex
	state *lua.LState
	entry *lua.LFunction
}

// NewHandle compiles and runs the plugin source in a fresh Lua state.
//
// The chunk's top level executes here; plugins come from a trusted local
// directory. Source that fails to compile, fails at top level, or defines
// no run function yields an error and no handle.
func NewHandle(name, source string) (*Handle, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, err
	}

	entry, ok := L.GetGlobal(EntryPoint).(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("no %q function defined", EntryPoint)
	}

	h := &Handle{name: name, state: L, entry: entry}
	if short, ok := L.GetGlobal(descriptionGlobal).(lua.LString); ok {
		h.short = string(short)
	}
	return h, nil
}

// openSafeLibraries opens the Lua standard libraries a command handler
// legitimately needs. io, os, debug and package stay closed: plugins that
// want host access go through the values handed to run, not raw syscalls.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Name is the command name the handle answers to.
func (h *Handle) Name() string {
	return h.name
}

// Short is the plugin's one line description, possibly empty.
func (h *Handle) Short() string {
	return h.short
}

// Run invokes the plugin entry point with the raw argument text and
// returns whatever string the plugin produced. A Lua runtime error is
// returned as an error, never raised; panics are recovered so a buggy
// plugin cannot take down the host process.
func (h *Handle) Run(args string) (out string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin panicked: %v", r)
		}
	}()

	h.setArgTable(args)

	top := h.state.GetTop()
	h.state.Push(h.entry)
	h.state.Push(lua.LString(args))
	if err := h.state.PCall(1, lua.MultRet, nil); err != nil {
		h.state.SetTop(top)
		return "", err
	}

	nret := h.state.GetTop() - top
	if nret <= 0 {
		return "", nil
	}
	ret := h.state.Get(top + 1)
	h.state.Pop(nret)

	if ret == lua.LNil {
		return "", nil
	}
	return ret.String(), nil
}

// setArgTable publishes the tokenized argument list as the conventional
// Lua arg table before each call.
func (h *Handle) setArgTable(args string) {
	tokens, err := shlex.Split(args, true)
	if err != nil {
		// Unbalanced quotes; fall back to naive splitting.
		tokens = strings.Fields(args)
	}

	tbl := h.state.NewTable()
	for _, tok := range tokens {
		tbl.Append(lua.LString(tok))
	}
	h.state.SetGlobal("arg", tbl)
}

// Close releases the plugin's Lua state.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Close()
}
