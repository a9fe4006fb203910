package util

// MetricsBucketsMilliSeconds defines histogram buckets for millisecond-level latency measurements.
// Buckets range from 1ms to 4s in exponential progression.
var MetricsBucketsMilliSeconds = []float64{
	1e-3, 2e-3, 4e-3, 16e-3, 32e-3, 64e-3, 128e-3, 256e-3, 512e-3, 1024e-3, 2048e-3, 4096e-3,
}

// MetricsBucketsMilliLongSeconds defines histogram buckets for longer millisecond-level measurements.
// Buckets range from 64ms to 131s in exponential progression.
var MetricsBucketsMilliLongSeconds = []float64{
	64e-3, 128e-3, 256e-3, 512e-3, 1024e-3, 2048e-3, 4096e-3, 8192e-3, 16384e-3, 32768e-3, 65536e-3, 131072e-3,
}

// MetricsBucketsSizeSmall defines histogram buckets for small data size measurements.
// Buckets range from 1 byte to 32KB in exponential progression.
var MetricsBucketsSizeSmall = []float64{
	1, 16, 32, 64, 128, 256, 1024, 2048, 4096, 8192, 16384, 32768,
}
