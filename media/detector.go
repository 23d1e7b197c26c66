package media

import (
	"context"
	"fmt"
	"image"
	"log"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/camden-git/attendsysbackend/recognition"
)

const (
	detectInputSize  = 300
	embedInputSize   = 112
	detectConfidence = 0.5
)

// DNNFaceDetector implements recognition.Detector with two OpenCV DNN
// networks: an SSD face detector and an embedding model producing
// 128-dimensional descriptors. A disabled detector (missing model files)
// reports every attempt as a retryable error rather than crashing the
// recognition loop.
type DNNFaceDetector struct {
	detectNet gocv.Net
	embedNet  gocv.Net
	Enabled   bool

	meanVal gocv.Scalar

	// gocv networks are not safe for concurrent Forward calls
	mu sync.Mutex
}

// Ensure DNNFaceDetector implements recognition.Detector
var _ recognition.Detector = (*DNNFaceDetector)(nil)

// NewDNNFaceDetector loads the detection and embedding networks. Empty paths
// disable the detector.
func NewDNNFaceDetector(configPath, modelPath, embedModelPath string) *DNNFaceDetector {
	if configPath == "" || modelPath == "" || embedModelPath == "" {
		log.Println("detection(dnn): model paths not configured, disabling DNN detector")
		return &DNNFaceDetector{Enabled: false}
	}

	detectNet := gocv.ReadNet(modelPath, configPath)
	if detectNet.Empty() {
		log.Printf("detection(dnn): ERROR loading detection model: config=%s, model=%s", configPath, modelPath)
		return &DNNFaceDetector{Enabled: false}
	}

	embedNet := gocv.ReadNet(embedModelPath, "")
	if embedNet.Empty() {
		log.Printf("detection(dnn): ERROR loading embedding model: %s", embedModelPath)
		detectNet.Close()
		return &DNNFaceDetector{Enabled: false}
	}

	for _, net := range []*gocv.Net{&detectNet, &embedNet} {
		cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
		cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)
		if cudaBackendErr != nil || cudaTargetErr != nil {
			net.SetPreferableBackend(gocv.NetBackendDefault)
			net.SetPreferableTarget(gocv.NetTargetCPU)
		}
	}

	log.Println("detection(dnn): successfully loaded detection and embedding models")
	return &DNNFaceDetector{
		detectNet: detectNet,
		embedNet:  embedNet,
		Enabled:   true,
		meanVal:   gocv.NewScalar(104.0, 177.0, 123.0, 0),
	}
}

// Close releases the loaded networks
func (d *DNNFaceDetector) Close() {
	if d != nil && d.Enabled {
		d.detectNet.Close()
		d.embedNet.Close()
		d.Enabled = false
		log.Println("detection(dnn): closed networks")
	}
}

// Detect finds faces in an encoded frame and computes a descriptor for each.
// Zero detections is a normal outcome, not an error.
func (d *DNNFaceDetector) Detect(ctx context.Context, frame []byte) ([]recognition.Detection, error) {
	if d == nil || !d.Enabled {
		return nil, fmt.Errorf("face detector is not available")
	}

	img, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("decoded frame is empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	boxes := d.detectFaces(img)

	var detections []recognition.Detection
	for _, box := range boxes {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		region := img.Region(image.Rect(box.X1, box.Y1, box.X2, box.Y2))
		descriptor := d.extractDescriptor(region)
		region.Close()
		if descriptor == nil {
			continue
		}

		detections = append(detections, recognition.Detection{
			Box:        box,
			Descriptor: descriptor,
		})
	}
	return detections, nil
}

// detectFaces runs the SSD detection pass and returns clamped face boxes
func (d *DNNFaceDetector) detectFaces(img gocv.Mat) []recognition.BoundingBox {
	imgWidth := float32(img.Cols())
	imgHeight := float32(img.Rows())

	blob := gocv.BlobFromImage(img, 1.0, image.Pt(detectInputSize, detectInputSize), d.meanVal, false, false)
	defer blob.Close()

	d.detectNet.SetInput(blob, "")
	output := d.detectNet.Forward("")
	defer output.Close()

	sizes := output.Size()
	if len(sizes) != 4 || sizes[2] == 0 {
		return nil
	}
	numDetections := sizes[2]

	// reshape to [N, 7] for GetFloatAt(row, col) access
	detections := output.Reshape(1, numDetections)
	defer detections.Close()

	var boxes []recognition.BoundingBox
	for i := 0; i < numDetections; i++ {
		confidence := detections.GetFloatAt(i, 2)
		if confidence < detectConfidence {
			continue
		}

		x1 := detections.GetFloatAt(i, 3) * imgWidth
		y1 := detections.GetFloatAt(i, 4) * imgHeight
		x2 := detections.GetFloatAt(i, 5) * imgWidth
		y2 := detections.GetFloatAt(i, 6) * imgHeight

		x1 = float32(math.Max(0, float64(x1)))
		y1 = float32(math.Max(0, float64(y1)))
		x2 = float32(math.Min(float64(imgWidth), float64(x2)))
		y2 = float32(math.Min(float64(imgHeight), float64(y2)))
		if x2 <= x1 || y2 <= y1 {
			continue
		}

		boxes = append(boxes, recognition.BoundingBox{
			X1: int(x1), Y1: int(y1), X2: int(x2), Y2: int(y2),
		})
	}
	return boxes
}

// extractDescriptor runs the embedding network over one face region and
// returns a unit-length descriptor, or nil if the model output is unusable
func (d *DNNFaceDetector) extractDescriptor(region gocv.Mat) recognition.Descriptor {
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(region, &resized, image.Pt(embedInputSize, embedInputSize), 0, 0, gocv.InterpolationLinear)

	blob := gocv.BlobFromImage(resized, 1.0/255.0, image.Pt(embedInputSize, embedInputSize), gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	d.embedNet.SetInput(blob, "")
	output := d.embedNet.Forward("")
	defer output.Close()

	flattened := output.Reshape(1, 1)
	defer flattened.Close()

	if flattened.Cols() != recognition.DescriptorLength {
		log.Printf("detection(dnn): embedding model produced %d values, expected %d", flattened.Cols(), recognition.DescriptorLength)
		return nil
	}

	descriptor := make(recognition.Descriptor, recognition.DescriptorLength)
	var norm float64
	for i := 0; i < recognition.DescriptorLength; i++ {
		v := float64(flattened.GetFloatAt(0, i))
		descriptor[i] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil
	}
	for i := range descriptor {
		descriptor[i] /= norm
	}
	return descriptor
}
