// Package registry converts trained model objects to and from a
// text-safe payload so runs can be persisted in JSON documents. It is a
// stateless transformer: all functions are pure with respect to their
// inputs except for the documented mutation of ModelResult fields.
package registry

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/gob"
	"io"

	"github.com/modelbench/modelbench/bench"
	"github.com/modelbench/modelbench/classifier"
	"github.com/modelbench/modelbench/core/model"
	"github.com/modelbench/modelbench/linear"
	"github.com/modelbench/modelbench/neighbors"
	"github.com/modelbench/modelbench/pkg/errors"
)

func init() {
	// Every concrete estimator that can appear in a run must be known to
	// gob before the first encode or decode.
	gob.Register(&linear.LinearRegression{})
	gob.Register(&linear.Ridge{})
	gob.Register(&linear.ElasticNet{})
	gob.Register(&classifier.LogisticRegression{})
	gob.Register(&classifier.GaussianNB{})
	gob.Register(&classifier.Perceptron{})
	gob.Register(&classifier.NearestCentroid{})
	gob.Register(&classifier.DecisionStump{})
	gob.Register(&neighbors.KNNClassifier{})
	gob.Register(&neighbors.KNNRegressor{})
}

// envelope wraps the estimator in an interface field so gob records the
// concrete type alongside the state.
type envelope struct {
	Model model.Estimator
}

// Encode serialises a trained model to a compressed, base64 text payload.
func Encode(est model.Estimator) (string, error) {
	if est == nil {
		return "", errors.NewSerializationError("", "encode", errors.New("nil model"))
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(envelope{Model: est}); err != nil {
		return "", errors.NewSerializationError("", "encode", err)
	}
	if err := zw.Close(); err != nil {
		return "", errors.NewSerializationError("", "encode", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reconstructs a model object from a payload produced by Encode.
func Decode(payload string) (model.Estimator, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.NewSerializationError("", "decode", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.NewSerializationError("", "decode", err)
	}
	defer zr.Close()
	var env envelope
	if err := gob.NewDecoder(zr).Decode(&env); err != nil && err != io.EOF {
		return nil, errors.NewSerializationError("", "decode", err)
	}
	if env.Model == nil {
		return nil, errors.NewSerializationError("", "decode", errors.New("payload held no model"))
	}
	return env.Model, nil
}

// EncodeRun captures a text-safe payload for every successful result that
// still carries a trained object, setting Serialized and HasObject in
// place. Results without an object, and failed results, are left
// untouched with HasObject false. An encode failure degrades only its own
// entry: metrics survive, the object does not.
func EncodeRun(run *bench.BenchmarkRun) {
	for i := range run.Results {
		res := &run.Results[i]
		if res.Status != bench.StatusSuccess || res.Trained == nil {
			continue
		}
		payload, err := Encode(res.Trained)
		if err != nil {
			res.Serialized = nil
			res.HasObject = false
			res.DecodeNote = "serialization failed: " + err.Error()
			continue
		}
		res.Serialized = &bench.SerializedModel{Payload: payload, Decodable: true}
		res.HasObject = true
	}
}

// DecodeRun reattaches trained objects to a run loaded from storage.
// Entries that cannot be decoded keep their metrics and gain a
// DecodeNote; their Decodable flag is cleared so later passes skip them.
// The returned count is the number of objects reconstructed.
func DecodeRun(run *bench.BenchmarkRun) int {
	decoded := 0
	for i := range run.Results {
		res := &run.Results[i]
		if res.Trained != nil {
			decoded++
			continue
		}
		if res.Serialized == nil || !res.HasObject {
			continue
		}
		if !res.Serialized.Decodable {
			continue
		}
		est, err := Decode(res.Serialized.Payload)
		if err != nil {
			res.Serialized.Decodable = false
			res.DecodeNote = "decode failed: " + err.Error()
			continue
		}
		res.Trained = est
		decoded++
	}
	return decoded
}
