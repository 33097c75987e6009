package content

// Metadata is the open string-keyed context the gateway sends with each
// request. Processors may append keys; the dispatch core stamps its own
// reserved keys (processor_id, processor_version, request_id, step_id,
// app_details, processor_result, tags) into the outbound copy.
type Metadata map[string]any
