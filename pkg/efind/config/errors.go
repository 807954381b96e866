package config

import "errors"

var (
	errWriteBufferSize = errors.New("config: write_buffer_size must be positive")
	errReadBufferSize  = errors.New("config: read_buffer_size must be positive when a read-buffer policy is set")
	errFlushingUnitSize = errors.New("config: flushing_unit_size must be positive")
	errA1InPercSize    = errors.New("config: A1in_perc_size must be in (0,100) under Full2Q")
	errPageSize        = errors.New("config: page_size must be positive")
	errLogFile         = errors.New("config: log_file must be set")

	errBadSignature = errors.New("config: bad header signature")
	errShortHeader  = errors.New("config: header shorter than HeaderSize")
	errLogPathTooLong = errors.New("config: log_file path longer than the header's fixed field")
)
