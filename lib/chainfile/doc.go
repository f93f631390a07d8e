// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chainfile reads chain description files: the on-disk form of
// a path spec chain plus the credentials that unlock its layers.
//
// A chain file is YAML, or JSON extended with comments and trailing
// commas (JSONC) when its extension is .json or .jsonc. Layers are
// listed root first; every key other than "type" is an attribute
// passed to the layer type's constructor:
//
//	chain:
//	  - type: OS
//	    location: /images/vault.age
//	  - type: AGE
//	  - type: SQLITE_BLOB
//	    table_name: blobs
//	    column_name: data
//	    row_index: 3
//	credentials:
//	  - layer: 1
//	    kind: password
//	    env: VAULT_PASSWORD
//
// Credential values never appear in the file itself. Each credential
// names an environment variable or a file to read the value from.
package chainfile
