package types

import "github.com/mesh-intelligence/lifter/pkg/descriptor"

// Executor submits commands to the remote host and queries its state.
// Every call is a blocking, side-effecting round-trip; callers never retry.
type Executor interface {
	// Submit runs command with payload and returns the host's result
	// descriptor. A nil payload is sent as an empty descriptor.
	Submit(command string, payload *descriptor.Descriptor) (*descriptor.Descriptor, error)

	// Query returns the descriptor addressed by ref. When ref starts with a
	// property element, only that key is returned; a key the entity does
	// not carry yields a descriptor without it.
	Query(ref *descriptor.Reference) (*descriptor.Descriptor, error)
}

// DocumentContext switches the host's active document.
type DocumentContext interface {
	ActiveDocumentID() (int64, error)
	MakeActiveDocument(id int64) error
}

// FileCopier copies linked assets. Copy returns the destination path.
type FileCopier interface {
	Copy(src, dst string) (string, error)
}

// Prompter asks the user for a file name. ok is false when the user
// cancelled.
type Prompter interface {
	PromptFileName(message, suggested string) (name string, ok bool, err error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(message, suggested string) (string, bool, error)

// PromptFileName calls f.
func (f PrompterFunc) PromptFileName(message, suggested string) (string, bool, error) {
	return f(message, suggested)
}
