// Package jsonio reads and writes JSON metadata files in an archive.
package jsonio

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/durabackup/dura/archive/transport"
)

// Write marshals v and writes it to name on t, with a trailing newline.
func Write(t transport.Transport, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %q", name)
	}
	data = append(data, '\n')
	return t.WriteFile(name, data)
}

// Read reads name from t and unmarshals it into v.
func Read(t transport.Transport, name string, v interface{}) error {
	data, err := t.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to unmarshal %q", name)
	}
	return nil
}
