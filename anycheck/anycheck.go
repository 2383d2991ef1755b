// Package anycheck saves and restores training progress
// between runs of an anybatch.NetLearner.
//
// A checkpoint stores the last completed epoch alongside a
// serialized network and, optionally, the state of the
// gradient transformer, so a schedule can be resumed with
// SetScheduleFrom(numEpochs, epoch+1).
package anycheck

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/unixpickle/anybatch"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// A Checkpointer saves a checkpoint after every epoch.
type Checkpointer struct {
	Path string
	Net  serializer.Serializer

	// Transformer, if non-nil, is saved with the network.
	// Optimizers such as *anysgd.Adam carry moment
	// estimates which would otherwise restart on resume.
	Transformer anysgd.TransformMarshaler

	// Every controls how often to save, in epochs.
	// If it is 0, every epoch is saved.
	Every int

	// Logger receives a line per saved checkpoint.
	// If nil, nothing is logged.
	Logger *log.Logger
}

// PostEpoch saves a checkpoint for the epoch.
// It can be passed to AddPostEpochAction.
func (c *Checkpointer) PostEpoch(e anybatch.EpochEvent) error {
	if c.Every > 1 && e.Epoch%c.Every != 0 {
		return nil
	}
	if err := Save(c.Path, e.Epoch, c.Net, c.Transformer); err != nil {
		return err
	}
	if c.Logger != nil {
		c.Logger.Printf("saved checkpoint for epoch %d to %s", e.Epoch, c.Path)
	}
	return nil
}

// Save writes a checkpoint to path.
// The transformer may be nil.
//
// The data is written to a temporary file first, so an
// interrupted save leaves any older checkpoint intact.
func Save(path string, epoch int, net serializer.Serializer,
	t anysgd.TransformMarshaler) error {
	var state []byte
	if t != nil {
		var err error
		state, err = t.MarshalBinary()
		if err != nil {
			return essentials.AddCtx("save checkpoint", err)
		}
	}
	data, err := serializer.SerializeAny(serializer.Int(epoch), net,
		serializer.Bytes(state))
	if err != nil {
		return essentials.AddCtx("save checkpoint", err)
	}
	temp, err := ioutil.TempFile(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return essentials.AddCtx("save checkpoint", err)
	}
	_, err = temp.Write(data)
	if closeErr := temp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(temp.Name(), path)
	}
	if err != nil {
		os.Remove(temp.Name())
		return essentials.AddCtx("save checkpoint", err)
	}
	return nil
}

// Load reads a checkpoint from path.
// The network is decoded into netPtr, which should be a
// pointer to a variable of the saved network's type, such
// as *anynet.Net.
//
// The transformer state is returned as-is, since most
// transformers can only decode it once they know the
// loaded network's parameters.
// Pass it to RestoreTransformer.
// It is empty if no transformer was saved.
//
// If no checkpoint exists, the returned error satisfies
// os.IsNotExist.
func Load(path string, netPtr interface{}) (epoch int, state []byte, err error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}
	var savedEpoch serializer.Int
	var savedState serializer.Bytes
	err = serializer.DeserializeAny(data, &savedEpoch, netPtr, &savedState)
	if err != nil {
		return 0, nil, essentials.AddCtx("load checkpoint", err)
	}
	return int(savedEpoch), savedState, nil
}

// RestoreTransformer decodes transformer state returned by
// Load into t.
// Empty state leaves t untouched.
//
// For *anysgd.Adam, t.Vars must already list the loaded
// network's parameters.
func RestoreTransformer(t anysgd.TransformMarshaler, state []byte) error {
	if len(state) == 0 {
		return nil
	}
	if err := t.UnmarshalBinary(state); err != nil {
		return essentials.AddCtx("restore transformer", err)
	}
	return nil
}
