// Package raw is the bottom of the stack: the raw SVC ABI. One Number per
// kernel syscall, a register-only calling convention (x0..x7 in, x0..x7 out),
// and nothing else. This package never allocates, never reads TLS and never
// panics on a kernel-reported failure — all failure is a non-zero
// resultcode.ResultCode that the caller (svc, the typed layer) interprets.
//
// The numbering follows the public Switchbrew SVC catalogue referenced in
// the design: 0x01-0x7F plus the 0x90/0x91 insecure-physical-memory pair,
// including the two documented reshufflings (QueryMemoryMapping replacing
// LegacyQueryIoMapping at 0x55 in 10.0.0+, and ContinueDebugEvent's 3.0.0+
// signature change at 0x64) exposed side by side.
package raw

// Number is a supervisor-call immediate: the value encoded directly into
// the `svc #imm` instruction, per Horizon's ABI (unlike Linux, where the
// syscall number travels in a register and the instruction's immediate is
// always zero).
type Number uint32

// Syscall numbers, grouped the way Switchbrew groups them.
const (
	SetHeapSize      Number = 0x01
	SetMemoryPermission Number = 0x02
	SetMemoryAttribute  Number = 0x03
	MapMemory           Number = 0x04
	UnmapMemory         Number = 0x05
	QueryMemory         Number = 0x06
	ExitProcess         Number = 0x07

	CreateThread            Number = 0x08
	StartThread             Number = 0x09
	ExitThread              Number = 0x0A
	SleepThread             Number = 0x0B
	GetThreadPriority       Number = 0x0C
	SetThreadPriority       Number = 0x0D
	GetThreadCoreMask       Number = 0x0E
	SetThreadCoreMask       Number = 0x0F
	GetCurrentProcessorNumber Number = 0x10

	SignalEvent  Number = 0x11
	ClearEvent   Number = 0x12

	MapSharedMemory       Number = 0x13
	UnmapSharedMemory     Number = 0x14
	CreateTransferMemory  Number = 0x15
	CloseHandle           Number = 0x16
	ResetSignal           Number = 0x17

	WaitSynchronization   Number = 0x18
	CancelSynchronization Number = 0x19
	ArbitrateLock         Number = 0x1A
	ArbitrateUnlock       Number = 0x1B
	WaitProcessWideKeyAtomic Number = 0x1C
	SignalProcessWideKey  Number = 0x1D
	GetSystemTick         Number = 0x1E

	ConnectToNamedPort              Number = 0x1F
	SendSyncRequestLight            Number = 0x20
	SendSyncRequest                 Number = 0x21
	SendSyncRequestWithUserBuffer   Number = 0x22
	SendAsyncRequestWithUserBuffer  Number = 0x23

	GetProcessId Number = 0x24
	GetThreadId  Number = 0x25
	Break        Number = 0x26

	OutputDebugString   Number = 0x27
	ReturnFromException Number = 0x28
	GetInfo             Number = 0x29

	FlushEntireDataCache Number = 0x2A
	FlushDataCache       Number = 0x2B
	MapPhysicalMemory    Number = 0x2C
	UnmapPhysicalMemory  Number = 0x2D

	GetDebugFutureThreadInfo Number = 0x2E
	GetLastThreadInfo        Number = 0x2F

	GetResourceLimitLimitValue   Number = 0x30
	GetResourceLimitCurrentValue Number = 0x31
	SetThreadActivity            Number = 0x32
	GetThreadContext3            Number = 0x33
	WaitForAddress                Number = 0x34
	SignalToAddress                Number = 0x35
	SynchronizePreemptionState      Number = 0x36
	GetResourceLimitPeakValue       Number = 0x37

	CreateIoPool   Number = 0x39
	CreateIoRegion Number = 0x3A

	KernelDebug           Number = 0x3C
	ChangeKernelTraceState Number = 0x3D

	CreateSession                   Number = 0x40
	AcceptSession                   Number = 0x41
	ReplyAndReceiveLight            Number = 0x42
	ReplyAndReceive                 Number = 0x43
	ReplyAndReceiveWithUserBuffer   Number = 0x44
	CreateEvent                     Number = 0x45
	MapIoRegion                     Number = 0x46
	UnmapIoRegion                   Number = 0x47

	MapPhysicalMemoryUnsafe   Number = 0x48
	UnmapPhysicalMemoryUnsafe Number = 0x49
	SetUnsafeLimit            Number = 0x4A
	CreateCodeMemory          Number = 0x4B
	ControlCodeMemory         Number = 0x4C
	SleepSystem               Number = 0x4D
	ReadWriteRegister         Number = 0x4E
	SetProcessActivity        Number = 0x4F

	CreateSharedMemory    Number = 0x50
	MapTransferMemory     Number = 0x51
	UnmapTransferMemory   Number = 0x52
	CreateInterruptEvent  Number = 0x53
	QueryPhysicalAddress  Number = 0x54

	// QueryMemoryMapping replaces LegacyQueryIoMapping at the same
	// immediate starting 10.0.0; both names are kept so callers targeting
	// either firmware range compile against the name they expect.
	QueryMemoryMapping   Number = 0x55
	LegacyQueryIoMapping Number = 0x55

	CreateDeviceAddressSpace      Number = 0x56
	AttachDeviceAddressSpace      Number = 0x57
	DetachDeviceAddressSpace      Number = 0x58
	MapDeviceAddressSpaceByForce  Number = 0x59
	MapDeviceAddressSpaceAligned  Number = 0x5A
	MapDeviceAddressSpace         Number = 0x5B
	UnmapDeviceAddressSpace       Number = 0x5C
	InvalidateProcessDataCache    Number = 0x5D
	StoreProcessDataCache         Number = 0x5E
	FlushProcessDataCache         Number = 0x5F

	DebugActiveProcess    Number = 0x60
	BreakDebugProcess     Number = 0x61
	TerminateDebugProcess Number = 0x62
	GetDebugEvent         Number = 0x63

	// ContinueDebugEvent's argument shape changed in 3.0.0; LegacyContinueDebugEvent
	// names the pre-3.0.0 signature at the same immediate.
	ContinueDebugEvent       Number = 0x64
	LegacyContinueDebugEvent Number = 0x64

	GetProcessList          Number = 0x65
	GetThreadList           Number = 0x66
	GetDebugThreadContext   Number = 0x67
	SetDebugThreadContext   Number = 0x68
	QueryDebugProcessMemory Number = 0x69
	ReadDebugProcessMemory  Number = 0x6A
	WriteDebugProcessMemory Number = 0x6B
	SetHardwareBreakPoint   Number = 0x6C
	GetDebugThreadParam     Number = 0x6D

	GetSystemInfo Number = 0x6F

	CreatePort                   Number = 0x70
	ManageNamedPort              Number = 0x71
	ConnectToPort                Number = 0x72
	SetProcessMemoryPermission   Number = 0x73
	MapProcessMemory             Number = 0x74
	UnmapProcessMemory           Number = 0x75
	QueryProcessMemory           Number = 0x76
	MapProcessCodeMemory         Number = 0x77
	UnmapProcessCodeMemory       Number = 0x78
	CreateProcess                Number = 0x79
	StartProcess                 Number = 0x7A
	TerminateProcess             Number = 0x7B
	GetProcessInfo               Number = 0x7C
	CreateResourceLimit          Number = 0x7D
	SetResourceLimitLimitValue   Number = 0x7E
	CallSecureMonitor            Number = 0x7F

	MapInsecurePhysicalMemory   Number = 0x90
	UnmapInsecurePhysicalMemory Number = 0x91
)

// Name returns the Switchbrew name for a syscall number listed in the names
// table below, for logging and panic messages, and "Unknown" for any other
// number; several declared numbers (BreakDebugProcess among them) have no
// entry. It never participates in the dispatch path itself.
func (n Number) Name() string {
	if name, ok := names[n]; ok {
		return name
	}
	return "Unknown"
}

var names = map[Number]string{
	SetHeapSize: "SetHeapSize", SetMemoryPermission: "SetMemoryPermission",
	SetMemoryAttribute: "SetMemoryAttribute", MapMemory: "MapMemory",
	UnmapMemory: "UnmapMemory", QueryMemory: "QueryMemory", ExitProcess: "ExitProcess",
	CreateThread: "CreateThread", StartThread: "StartThread", ExitThread: "ExitThread",
	SleepThread: "SleepThread", GetThreadPriority: "GetThreadPriority",
	SetThreadPriority: "SetThreadPriority", GetThreadCoreMask: "GetThreadCoreMask",
	SetThreadCoreMask: "SetThreadCoreMask", GetCurrentProcessorNumber: "GetCurrentProcessorNumber",
	SignalEvent: "SignalEvent", ClearEvent: "ClearEvent", MapSharedMemory: "MapSharedMemory",
	UnmapSharedMemory: "UnmapSharedMemory", CreateTransferMemory: "CreateTransferMemory",
	CloseHandle: "CloseHandle", ResetSignal: "ResetSignal", WaitSynchronization: "WaitSynchronization",
	CancelSynchronization: "CancelSynchronization", ArbitrateLock: "ArbitrateLock",
	ArbitrateUnlock: "ArbitrateUnlock", WaitProcessWideKeyAtomic: "WaitProcessWideKeyAtomic",
	SignalProcessWideKey: "SignalProcessWideKey", GetSystemTick: "GetSystemTick",
	ConnectToNamedPort: "ConnectToNamedPort", SendSyncRequestLight: "SendSyncRequestLight",
	SendSyncRequest: "SendSyncRequest", SendSyncRequestWithUserBuffer: "SendSyncRequestWithUserBuffer",
	SendAsyncRequestWithUserBuffer: "SendAsyncRequestWithUserBuffer", GetProcessId: "GetProcessId",
	GetThreadId: "GetThreadId", Break: "Break", OutputDebugString: "OutputDebugString",
	ReturnFromException: "ReturnFromException", GetInfo: "GetInfo",
	FlushEntireDataCache: "FlushEntireDataCache", FlushDataCache: "FlushDataCache",
	MapPhysicalMemory: "MapPhysicalMemory", UnmapPhysicalMemory: "UnmapPhysicalMemory",
	GetResourceLimitLimitValue: "GetResourceLimitLimitValue",
	GetResourceLimitCurrentValue: "GetResourceLimitCurrentValue",
	SetThreadActivity: "SetThreadActivity", WaitForAddress: "WaitForAddress",
	SignalToAddress: "SignalToAddress", CreateSession: "CreateSession",
	AcceptSession: "AcceptSession", ReplyAndReceiveLight: "ReplyAndReceiveLight",
	ReplyAndReceive: "ReplyAndReceive", ReplyAndReceiveWithUserBuffer: "ReplyAndReceiveWithUserBuffer",
	CreateEvent: "CreateEvent", CreateSharedMemory: "CreateSharedMemory",
	MapTransferMemory: "MapTransferMemory", UnmapTransferMemory: "UnmapTransferMemory",
	DebugActiveProcess: "DebugActiveProcess", GetDebugEvent: "GetDebugEvent",
	ContinueDebugEvent: "ContinueDebugEvent", GetProcessList: "GetProcessList",
	GetThreadList: "GetThreadList", CreatePort: "CreatePort", ManageNamedPort: "ManageNamedPort",
	ConnectToPort: "ConnectToPort", CreateProcess: "CreateProcess", StartProcess: "StartProcess",
	TerminateProcess: "TerminateProcess", GetProcessInfo: "GetProcessInfo",
	CreateResourceLimit: "CreateResourceLimit", SetResourceLimitLimitValue: "SetResourceLimitLimitValue",
	CallSecureMonitor: "CallSecureMonitor", MapInsecurePhysicalMemory: "MapInsecurePhysicalMemory",
	UnmapInsecurePhysicalMemory: "UnmapInsecurePhysicalMemory", SetProcessActivity: "SetProcessActivity",
}
