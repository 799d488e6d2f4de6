// Package source reads uploaded objects from object storage and decodes
// the notification events that reference them.
package source

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// ObjectRef identifies one uploaded object in storage.
type ObjectRef struct {
	Bucket string
	Key    string
}

func (r ObjectRef) String() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

// notification mirrors the S3 event notification payload. Only the fields
// the pipeline needs are decoded.
type notification struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseEvent decodes a storage notification payload into object references.
// Object keys arrive URL-encoded with "+" for spaces and are decoded here.
// Every record in the event is returned, in order; an event with no records
// fails with ErrEmptyEvent.
func ParseEvent(data []byte) ([]ObjectRef, error) {
	var event notification
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if len(event.Records) == 0 {
		return nil, ErrEmptyEvent
	}

	refs := make([]ObjectRef, 0, len(event.Records))
	for i, rec := range event.Records {
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("decode object key in record %d: %w", i, err)
		}
		if rec.S3.Bucket.Name == "" || key == "" {
			return nil, fmt.Errorf("record %d is missing bucket or key", i)
		}
		refs = append(refs, ObjectRef{Bucket: rec.S3.Bucket.Name, Key: key})
	}
	return refs, nil
}
