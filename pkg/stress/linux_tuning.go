// Copyright (c) 2023 Paweł Gaczyński
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

package stress

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

func setProcessPriority() error {
	err := unix.Setpriority(unix.PRIO_PROCESS, os.Getpid(), -19)
	if err != nil {
		return fmt.Errorf("Setpriority: %w", err)
	}

	return nil
}

// setAffinity pins the calling thread. The caller must hold runtime.LockOSThread.
func setAffinity(index int) error {
	var newMask unix.CPUSet

	newMask.Zero()
	newMask.Set(index % runtime.NumCPU())

	err := unix.SchedSetaffinity(0, &newMask)
	if err != nil {
		return fmt.Errorf("SchedSetaffinity: %w, %v", err, newMask)
	}

	return nil
}
