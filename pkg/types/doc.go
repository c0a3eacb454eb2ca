// Package types defines the collaborator interfaces, layer value types,
// configuration, and standard errors shared by the lifter packages.
//
// The remote host is reached only through Executor. DocumentContext,
// FileCopier and Prompter cover the document switch, linked-asset copies and
// interactive file-name prompts that a few structural operations need.
package types
