package utpl

import (
	"fmt"
	"unsafe"
)

const (
	estimatedValueBytes        = 24
	estimatedStringHeaderBytes = 16
	estimatedSliceBaseBytes    = 24
	estimatedMapBaseBytes      = 48
	estimatedMapEntryBytes     = 32
	estimatedEnvBytes          = 16
	estimatedCallFrameBytes    = 32
)

// memoryEstimator walks the reachable value graph once. Arrays, objects, and
// scope frames are tracked by identity so shared and cyclic structures are
// only counted the first time they are reached.
type memoryEstimator struct {
	seenEnvs    map[*Env]struct{}
	seenArrays  map[*Array]struct{}
	seenObjects map[*Object]struct{}
	seenStrings map[stringIdentity]struct{}
}

type stringIdentity struct {
	ptr uintptr
	len int
}

func newMemoryEstimator() *memoryEstimator {
	return &memoryEstimator{
		seenEnvs:    make(map[*Env]struct{}),
		seenArrays:  make(map[*Array]struct{}),
		seenObjects: make(map[*Object]struct{}),
		seenStrings: make(map[stringIdentity]struct{}),
	}
}

func (exec *Execution) checkMemory() error {
	if exec.memoryQuota <= 0 {
		return nil
	}

	used := exec.estimateMemoryUsage()
	if used > exec.memoryQuota {
		return fmt.Errorf("memory quota exceeded (%d bytes)", exec.memoryQuota)
	}
	return nil
}

func (exec *Execution) estimateMemoryUsage() int {
	est := newMemoryEstimator()
	total := est.env(exec.root)
	total += len(exec.callStack) * estimatedCallFrameBytes
	return total
}

func (est *memoryEstimator) env(env *Env) int {
	if env == nil {
		return 0
	}
	if _, seen := est.seenEnvs[env]; seen {
		return 0
	}
	est.seenEnvs[env] = struct{}{}

	size := estimatedEnvBytes + estimatedMapBaseBytes + len(env.values)*estimatedMapEntryBytes
	for name, val := range env.values {
		size += estimatedStringHeaderBytes + len(name)
		size += est.value(val)
	}
	size += est.env(env.parent)
	return size
}

func (est *memoryEstimator) value(val Value) int {
	size := estimatedValueBytes

	switch val.Kind() {
	case KindString:
		size += estimatedStringHeaderBytes
		size += est.stringPayloadSize(val.Str())
	case KindArray:
		arr := val.Array()
		if _, seen := est.seenArrays[arr]; seen {
			return size
		}
		est.seenArrays[arr] = struct{}{}
		size += estimatedSliceBaseBytes + cap(arr.Items)*estimatedValueBytes
		for _, item := range arr.Items {
			size += est.value(item)
		}
	case KindObject:
		obj := val.Object()
		if _, seen := est.seenObjects[obj]; seen {
			return size
		}
		est.seenObjects[obj] = struct{}{}
		size += estimatedMapBaseBytes + obj.Len()*estimatedMapEntryBytes
		for _, key := range obj.keys {
			size += estimatedStringHeaderBytes + len(key)
			entry, _ := obj.Get(key)
			size += est.value(entry)
		}
	case KindFunction:
		// The AST is a compile-time artifact; only the captured scope frame
		// counts against the quota.
		size += est.env(val.Function().Env)
	case KindBuiltin:
		// Static.
	}

	return size
}

func (est *memoryEstimator) stringPayloadSize(str string) int {
	if len(str) == 0 {
		return 0
	}

	key := stringIdentity{
		ptr: uintptr(unsafe.Pointer(unsafe.StringData(str))),
		len: len(str),
	}
	if _, seen := est.seenStrings[key]; seen {
		return 0
	}
	est.seenStrings[key] = struct{}{}
	return len(str)
}
