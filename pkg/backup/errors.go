// Copyright 2025 walteh LLC
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

package backup

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrEnvironment is matched by every EnvironmentError.
	ErrEnvironment = errors.Base("invalid backup environment")
	// ErrNothingToBackup means the source holds no matching asset.
	ErrNothingToBackup = errors.Base("no files to back up")
	// ErrLocked means another run holds the lock on the target directory.
	ErrLocked = errors.Base("target directory is locked by another backup")
)

// Role names which side of a backup a path is.
type Role string

const (
	RoleSource Role = "source"
	RoleTarget Role = "target"
)

// EnvironmentError reports a source or target directory that cannot be used.
type EnvironmentError struct {
	Role   Role
	Path   string
	Reason string
	Err    error
}

func (e *EnvironmentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s directory %q %s: %v", e.Role, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s directory %q %s", e.Role, e.Path, e.Reason)
}

func (e *EnvironmentError) Is(target error) bool { return target == ErrEnvironment }

func (e *EnvironmentError) Unwrap() error { return e.Err }

// IsEnvironment reports whether err is an EnvironmentError.
func IsEnvironment(err error) bool {
	var e *EnvironmentError
	return errors.As(err, &e)
}
