/*
Copyright Anchorid Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package json holds helpers for JSON objects carrying custom fields next
// to typed ones.
package json

// ShallowCopyObj returns a new map holding the same entries as obj.
func ShallowCopyObj(obj map[string]interface{}) map[string]interface{} {
	copied := make(map[string]interface{}, len(obj))

	for k, v := range obj {
		copied[k] = v
	}

	return copied
}

// CopyExcept copies obj, dropping the named fields.
func CopyExcept(obj map[string]interface{}, flds ...string) map[string]interface{} {
	copied := ShallowCopyObj(obj)

	for _, fld := range flds {
		delete(copied, fld)
	}

	return copied
}
