package tiff

// postProcess fills in the File-level pyramid summary once every IFD has
// been parsed and classified: the role indices, the level count, and the
// micrometre-per-pixel ladder (seeded from vendor description hints when
// present, otherwise the hard-coded 0.25 baseline doubling per level).
func postProcess(f *File) {
	f.MainImageIndex = 0

	var levelIndices []int
	for i, ifd := range f.IFDs {
		switch ifd.SubimageType {
		case SubimageLevel:
			levelIndices = append(levelIndices, i)
		case SubimageMacro:
			f.MacroImageIndex = i
		case SubimageLabel:
			f.LabelImageIndex = i
		}
	}
	f.LevelCount = len(levelIndices)
	if len(levelIndices) > 0 {
		f.LevelImageIndex = levelIndices[0]
	}

	var baseMppX, baseMppY, baseMag float64
	var ok bool
	if len(f.IFDs) > 0 {
		baseMppX, baseMppY, baseMag, ok = parseDescriptionHints(f.IFDs[f.MainImageIndex].ImageDescription)
	}
	if baseMppX == 0 {
		baseMppX, baseMppY = 0.25, 0.25
		Logger.Printf("no MPP hint found in description, defaulting level 0 to %.2f um/pixel", baseMppX)
	}

	f.MppX, f.MppY = baseMppX, baseMppY

	umPerPixel := baseMppX
	umPerPixelY := baseMppY
	var refTileWidth, refTileHeight uint32
	for n, idx := range levelIndices {
		ifd := f.IFDs[idx]
		ifd.UmPerPixelX = umPerPixel
		ifd.UmPerPixelY = umPerPixelY
		ifd.XTileSideInUm = umPerPixel * float64(ifd.TileWidth)
		ifd.YTileSideInUm = umPerPixelY * float64(ifd.TileHeight)
		if n == 0 {
			refTileWidth, refTileHeight = ifd.TileWidth, ifd.TileHeight
			if ok && baseMag > 0 {
				ifd.LevelMagnification = baseMag
			}
		} else if ifd.TileWidth != refTileWidth || ifd.TileHeight != refTileHeight {
			Logger.Printf("level %d tile size %dx%d differs from level 0's %dx%d", idx, ifd.TileWidth, ifd.TileHeight, refTileWidth, refTileHeight)
		}

		umPerPixel *= 2.0
		umPerPixelY *= 2.0
	}
}
