// Package videoio binds the native video capture and writer library.
//
// Every entry point forwards to exactly one native call and reports native
// failures as one of two error types:
//
//   - *CvException for exceptions raised by the video library itself,
//     formatted "cv::Exception: <what>";
//   - *Exception for everything else: a standard native exception
//     ("std::exception: <what>"), a failure without exception information
//     ("unknown exception"), or a binding error such as a closed object.
//
// Opening a source that does not exist is not an error: the open call
// returns false. Call SetExceptionMode(true) on a capture to have the native
// library raise a *CvException instead.
//
// Basic usage:
//
//	capture, err := videoio.NewVideoCaptureFile("input.mp4", videoio.APIAny)
//	if err != nil {
//		return err
//	}
//	defer capture.Close()
//
//	var f frame.VideoFrame
//	for {
//		ok, err := capture.Read(&f)
//		if err != nil || !ok {
//			break
//		}
//		// f.Data is valid until the next Read.
//	}
//
// The native shim is loaded on first use from the default locations; call
// Load to choose the library path explicitly.
package videoio
