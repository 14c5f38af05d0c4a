// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package dynprops

import "sync"

var (
	globalMutex    sync.Mutex
	globalDynProps *DynProps
)

// GetGlobalDynProps returns the process-wide instance, creating it with
// default options on first use.
func GetGlobalDynProps() *DynProps {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	if globalDynProps == nil {
		// default options cannot fail
		globalDynProps, _ = NewDynProps()
	}
	return globalDynProps
}

// SetGlobalOptions replaces the process-wide instance with one built from opts.
// The previous instance stays usable by callers still holding it.
func SetGlobalOptions(opts ...DynPropsOption) error {
	dp, err := NewDynProps(opts...)
	if err != nil {
		return err
	}

	globalMutex.Lock()
	globalDynProps = dp
	globalMutex.Unlock()
	return nil
}

// ResetGlobalDynProps drops the process-wide instance and its cache.
func ResetGlobalDynProps() {
	globalMutex.Lock()
	globalDynProps = nil
	globalMutex.Unlock()
}
