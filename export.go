package darkroom

// framebufferToPixmap converts a bottom-up framebuffer in format f into a
// top-down RGBA pixmap, writing into dst.
func framebufferToPixmap(dst *Pixmap, fb []byte, f PixelFormat) {
	w, h := dst.width, dst.height
	stride := w * 4
	for y := 0; y < h; y++ {
		srcRow := fb[(h-1-y)*stride : (h-y)*stride]
		dstRow := dst.data[y*stride : (y+1)*stride]
		if f == FormatRGBA8 {
			copy(dstRow, srcRow)
			continue
		}
		for i := 0; i < stride; i += 4 {
			dstRow[i+0] = srcRow[i+2]
			dstRow[i+1] = srcRow[i+1]
			dstRow[i+2] = srcRow[i+0]
			dstRow[i+3] = srcRow[i+3]
		}
	}
}
